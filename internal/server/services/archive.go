package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	domain "github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/dmitrijs2005/factfeed/internal/logging"
	srvconfig "github.com/dmitrijs2005/factfeed/internal/server/config"
)

// Seams for tests.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Client builds an S3 client for the configured S3-compatible
// endpoint with static credentials and path-style addressing.
func NewS3Client(ctx context.Context, c *srvconfig.Config) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// ObjectPutter is the part of *s3.Client the Archiver uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// FactSnapshotter reads a consistent copy of the facts table.
type FactSnapshotter interface {
	Snapshot(ctx context.Context) ([]domain.Fact, error)
}

// ArchiveObserver is told about every archive attempt.
type ArchiveObserver interface {
	RecordArchive(success bool, facts int)
}

// Snapshot is the JSON document written to the bucket.
type Snapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Count       int           `json:"count"`
	Facts       []domain.Fact `json:"facts"`
}

// Archiver periodically writes a JSON snapshot of all facts to a bucket,
// one object per run under facts/<UTC timestamp>.json.
type Archiver struct {
	facts    FactSnapshotter
	store    ObjectPutter
	bucket   string
	log      logging.Logger
	observer ArchiveObserver
	now      func() time.Time
}

func NewArchiver(facts FactSnapshotter, store ObjectPutter, bucket string, log logging.Logger, observer ArchiveObserver) *Archiver {
	return &Archiver{
		facts:    facts,
		store:    store,
		bucket:   bucket,
		log:      log.With("module", "archiver"),
		observer: observer,
		now:      time.Now,
	}
}

// Archive takes one snapshot and uploads it. It returns the object key.
func (a *Archiver) Archive(ctx context.Context) (string, error) {
	list, err := a.facts.Snapshot(ctx)
	if err != nil {
		a.record(false, 0)
		return "", fmt.Errorf("snapshot facts: %w", err)
	}

	now := a.now().UTC()
	body, err := json.Marshal(Snapshot{GeneratedAt: now, Count: len(list), Facts: list})
	if err != nil {
		a.record(false, 0)
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	key := "facts/" + now.Format("20060102T150405Z") + ".json"
	_, err = a.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		a.record(false, len(list))
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	a.record(true, len(list))
	return key, nil
}

func (a *Archiver) record(success bool, n int) {
	if a.observer != nil {
		a.observer.RecordArchive(success, n)
	}
}

// Run archives every interval until ctx is done. Failures are logged and
// the next tick tries again.
func (a *Archiver) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			key, err := a.Archive(ctx)
			if err != nil {
				a.log.Error(ctx, "archive failed", "error", err)
				continue
			}
			a.log.Info(ctx, "facts archived", "bucket", a.bucket, "key", key)
		case <-ctx.Done():
			return
		}
	}
}
