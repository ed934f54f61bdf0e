package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/dmitrijs2005/factfeed/internal/logging"
)

// NewRecoveryMiddleware turns a handler panic into a 500.
func NewRecoveryMiddleware(log logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error(r.Context(), "panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					WriteInternalServerError(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
