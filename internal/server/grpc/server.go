// Package grpc serves the standard gRPC health checking protocol for the
// service, backed by the same dependency checks as the HTTP health route.
package grpc

import (
	"context"
	"net"
	"sort"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServicePrefix prefixes the per-dependency service names, e.g.
// "factfeed.db". The empty service name reports overall health.
const ServicePrefix = "factfeed."

type HealthServer struct {
	address  string
	logger   logging.Logger
	checks   map[string]func(context.Context) error
	interval time.Duration
	health   *health.Server
}

// NewHealthServer creates a health server that re-runs checks every
// interval while it is serving.
func NewHealthServer(a string, l logging.Logger, checks map[string]func(context.Context) error, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthServer{
		address:  a,
		logger:   l.With("module", "grpc_health"),
		checks:   checks,
		interval: interval,
		health:   health.NewServer(),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *HealthServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *HealthServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.refresh(ctx)
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC health server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}

// refresh runs every check and publishes the results.
func (s *HealthServer) refresh(ctx context.Context) {
	names := make([]string, 0, len(s.checks))
	for n := range s.checks {
		names = append(names, n)
	}
	sort.Strings(names)

	overall := healthpb.HealthCheckResponse_SERVING
	for _, n := range names {
		cctx, cancel := context.WithTimeout(ctx, s.interval)
		err := s.checks[n](cctx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn(ctx, "health check failed", "check", n, "error", err)
		}
		s.health.SetServingStatus(ServicePrefix+n, status)
	}
	s.health.SetServingStatus("", overall)
}
