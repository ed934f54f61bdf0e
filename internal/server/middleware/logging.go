package middleware

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/logging"
	"github.com/dmitrijs2005/factfeed/internal/server/metrics"
	"github.com/go-chi/chi/v5"
)

// statusRecorder wraps http.ResponseWriter and remembers the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// routePattern is the chi pattern that matched, or the raw path when no
// route did.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// NewLoggingMiddleware logs one structured line per request and reports
// it to rec. Server errors log at error level, client errors at warn.
func NewLoggingMiddleware(log logging.Logger, rec metrics.Recorder) func(next http.Handler) http.Handler {
	log = log.With("module", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			d := time.Since(start)
			route := routePattern(r)
			rec.RecordRequest(r.Method, route, sr.statusCode, d)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sr.statusCode,
				"duration_ms", float64(d.Nanoseconds()) / float64(time.Millisecond),
			}
			if userID, err := UserIDFromContext(r.Context()); err == nil {
				args = append(args, "user_id", userID)
			}

			switch {
			case sr.statusCode >= 500:
				log.Error(r.Context(), "http_request", args...)
			case sr.statusCode >= 400:
				log.Warn(r.Context(), "http_request", args...)
			default:
				log.Info(r.Context(), "http_request", args...)
			}
		})
	}
}
