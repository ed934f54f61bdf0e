package refreshtokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/common"
	"github.com/dmitrijs2005/factfeed/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "refresh:"

// RedisRepository keeps refresh tokens in Redis with a TTL. Tokens are
// stored under their SHA-256 hash; a per-user set indexes them for
// DeleteAllForUser.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository parses redisURL, connects and pings the server.
func NewRedisRepository(ctx context.Context, redisURL string) (*RedisRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisRepositoryWithClient(client), nil
}

// NewRedisRepositoryWithClient wraps an existing client.
func NewRedisRepositoryWithClient(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client, prefix: defaultPrefix}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *RedisRepository) tokenKey(token string) string {
	return r.prefix + hashToken(token)
}

func (r *RedisRepository) userKey(userID string) string {
	return r.prefix + "user:" + userID
}

func (r *RedisRepository) Create(ctx context.Context, token *models.RefreshToken, validity time.Duration) error {
	if validity <= 0 {
		return fmt.Errorf("refresh token validity must be positive, got %s", validity)
	}

	now := time.Now()
	rec := *token
	rec.CreatedAt = now
	rec.ExpiresAt = now.Add(validity)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal refresh token: %w", err)
	}

	key := r.tokenKey(token.Token)
	userKey := r.userKey(token.UserID)

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, data, validity)
		p.SAdd(ctx, userKey, key)
		p.Expire(ctx, userKey, validity)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}

	token.CreatedAt = rec.CreatedAt
	token.ExpiresAt = rec.ExpiresAt
	return nil
}

func (r *RedisRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	data, err := r.client.Get(ctx, r.tokenKey(token)).Bytes()
	return r.decode(token, data, err)
}

func (r *RedisRepository) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	data, err := r.client.GetDel(ctx, r.tokenKey(token)).Bytes()
	rec, err := r.decode(token, data, err)
	if err != nil {
		return nil, err
	}
	if err := r.client.SRem(ctx, r.userKey(rec.UserID), r.tokenKey(token)).Err(); err != nil {
		return nil, fmt.Errorf("unindex refresh token: %w", err)
	}
	return rec, nil
}

func (r *RedisRepository) decode(token string, data []byte, err error) (*models.RefreshToken, error) {
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	rec := &models.RefreshToken{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("unmarshal refresh token: %w", err)
	}
	rec.Token = token
	return rec, nil
}

func (r *RedisRepository) Delete(ctx context.Context, token string) error {
	_, err := r.Consume(ctx, token)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *RedisRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	userKey := r.userKey(userID)

	keys, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("list refresh tokens: %w", err)
	}

	keys = append(keys, userKey)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
