package handler

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// HealthHandler answers GET /auth/v1/health. Each check must pass for a 200.
type HealthHandler struct {
	name    string
	version string
	checks  map[string]func(context.Context) error
	timeout time.Duration
}

func NewHealthHandler(name, version string, checks map[string]func(context.Context) error) *HealthHandler {
	return &HealthHandler{name: name, version: version, checks: checks, timeout: 2 * time.Second}
}

type healthResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Failing     map[string]string `json:"failing,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for n := range h.checks {
		names = append(names, n)
	}
	sort.Strings(names)

	resp := healthResponse{Name: h.name, Version: h.version, Description: "factfeed auth and facts API"}
	for _, n := range names {
		if err := h.checks[n](ctx); err != nil {
			if resp.Failing == nil {
				resp.Failing = map[string]string{}
			}
			resp.Failing[n] = err.Error()
		}
	}

	status := http.StatusOK
	if len(resp.Failing) > 0 {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
