package handler

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/factfeed/internal/logging"
	srvmetrics "github.com/dmitrijs2005/factfeed/internal/server/metrics"
	"github.com/dmitrijs2005/factfeed/internal/server/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps collects what NewRouter wires together.
type RouterDeps struct {
	Users UserService
	Facts FactService

	Logger      logging.Logger
	Metrics     srvmetrics.Recorder
	Gatherer    prometheus.Gatherer
	RateLimiter *middleware.RateLimiter

	SecretKey string
	AnonKey   string
	Version   string

	HealthChecks map[string]func(context.Context) error
}

// NewRouter builds the full route table.
//
// Middleware order on the API routes:
//
//	Recovery → Logging → APIKey → Authenticate → RateLimit
//
// /metrics and /auth/v1/health skip the api key.
func NewRouter(d *RouterDeps) http.Handler {
	rec := d.Metrics
	if rec == nil {
		rec = srvmetrics.Nop{}
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(d.Logger))
	r.Use(middleware.NewLoggingMiddleware(d.Logger, rec))

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", srvmetrics.Handler(d.Gatherer))
	}
	r.Method(http.MethodGet, "/auth/v1/health", NewHealthHandler("factfeed", d.Version, d.HealthChecks))

	authHandler := NewAuthHandler(d.Users, d.Logger, rec)
	factsHandler := NewFactsHandler(d.Facts, d.Logger, rec)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAPIKey(d.AnonKey))
		r.Use(middleware.Authenticate([]byte(d.SecretKey), d.AnonKey))
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Middleware())
		}

		r.Route("/auth/v1", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/token", authHandler.Token)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/logout", authHandler.Logout)
				r.Get("/user", authHandler.User)
			})
		})

		r.Route("/rest/v1/facts", func(r chi.Router) {
			r.Get("/", factsHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/", factsHandler.Insert)
				r.Patch("/", factsHandler.UpdateVotes)
				r.Delete("/", factsHandler.Delete)
			})
		})
	})

	return r
}
