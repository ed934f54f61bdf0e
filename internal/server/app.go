// Package server wires the data service together: PostgreSQL storage,
// the Redis refresh token store, the HTTP API, the gRPC health endpoint
// and the optional S3 archiver. It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/logging"
	"github.com/dmitrijs2005/factfeed/internal/server/config"
	"github.com/dmitrijs2005/factfeed/internal/server/handler"
	"github.com/dmitrijs2005/factfeed/internal/server/metrics"
	"github.com/dmitrijs2005/factfeed/internal/server/middleware"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/factfeed/internal/server/services"
	"github.com/dmitrijs2005/factfeed/internal/server/shared/db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	gs "github.com/dmitrijs2005/factfeed/internal/server/grpc"
)

// Version is reported by the health endpoints; set it with -ldflags.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	handler  http.Handler
	health   *gs.HealthServer
	archiver *services.Archiver
	limiter  *middleware.RateLimiter

	// closers run in order on shutdown
	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	conn, err := db.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger}
	app.closers = append(app.closers, conn.Close)

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, conn); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	tokens, err := refreshtokens.NewRedisRepository(ctx, c.RedisURL)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.closers = append(app.closers, tokens.Close)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	userService := services.NewUserService(conn, rm, tokens, c)
	factService := services.NewFactService(conn, rm)

	if c.ArchiveInterval > 0 {
		s3Client, err := services.NewS3Client(ctx, c)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		app.archiver = services.NewArchiver(factService, s3Client, c.S3Bucket, logger, collector)
	}

	if c.RateLimitRPS > 0 {
		app.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(c.RateLimitRPS),
			Burst: c.RateLimitBurst,
		}, logger, collector)
		app.closers = append(app.closers, func() error { app.limiter.Stop(); return nil })
	}

	checks := healthChecks(conn, tokens)
	if c.GRPCHealthAddr != "" {
		app.health = gs.NewHealthServer(c.GRPCHealthAddr, logger, checks, 0)
	}

	app.handler = handler.NewRouter(&handler.RouterDeps{
		Users:        userService,
		Facts:        factService,
		Logger:       logger,
		Metrics:      collector,
		Gatherer:     reg,
		RateLimiter:  app.limiter,
		SecretKey:    c.SecretKey,
		AnonKey:      c.AnonKey,
		Version:      Version,
		HealthChecks: checks,
	})

	return app, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthChecks(conn *sql.DB, tokens pinger) map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"db":    conn.PingContext,
		"redis": tokens.Ping,
	}
}

// Close releases the database and Redis connections.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	lis, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		app.logger.Error(ctx, "http listen failed", "error", err)
		cancelFunc()
		return
	}
	app.serveHTTP(ctx, cancelFunc, lis)
}

func (app *App) serveHTTP(ctx context.Context, cancelFunc context.CancelFunc, lis net.Listener) {
	srv := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is done or a server fails, then shuts everything
// down and releases resources.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "version", Version)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHealthServer(ctx, cancelFunc)
		}()
	}

	if app.archiver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.archiver.Run(ctx, app.config.ArchiveInterval)
		}()
	}

	wg.Wait()
	app.Close()

	app.logger.Info(context.Background(), "App stopped")
}
