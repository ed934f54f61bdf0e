package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/factfeed/internal/logging"
	"github.com/dmitrijs2005/factfeed/internal/server/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	failing := func(context.Context) error { return errDown }

	h := NewRouter(&RouterDeps{
		Users: &fakeUsers{}, Facts: &fakeFacts{}, Logger: logging.Nop(),
		AnonKey: testAnonKey, HealthChecks: map[string]func(context.Context) error{"db": ok},
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewRouter(&RouterDeps{
		Users: &fakeUsers{}, Facts: &fakeFacts{}, Logger: logging.Nop(),
		AnonKey: testAnonKey, HealthChecks: map[string]func(context.Context) error{"db": ok, "redis": failing},
	})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/v1/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	h := NewRouter(&RouterDeps{
		Users: &fakeUsers{}, Facts: &fakeFacts{}, Logger: logging.Nop(),
		Metrics: c, Gatherer: reg, SecretKey: testSecret, AnonKey: testAnonKey,
	})

	_ = do(t, h, http.MethodPost, "/auth/v1/token?grant_type=password", "", `{"email":"a@b.c","password":"secret1"}`)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `factfeed_auth_attempts_total{grant="password",outcome="success"} 1`), body)
	assert.True(t, strings.Contains(body, `route="/auth/v1/token"`), body)
}
