package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/factfeed/internal/common"
	"github.com/dmitrijs2005/factfeed/internal/server/auth"
)

// RequireAPIKey rejects requests whose apikey header (or query parameter)
// is not key.
func RequireAPIKey(key string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("apikey")
			if got == "" {
				got = r.URL.Query().Get("apikey")
			}
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				WriteError(w, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Authenticate verifies the bearer token and stores its claims in the
// request context. A missing token, or the public anon key used as one,
// leaves the request anonymous; any other token must verify.
func Authenticate(secret []byte, anonKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" || token == anonKey {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(token, secret)
			if err != nil {
				if errors.Is(err, common.ErrTokenExpired) {
					WriteError(w, http.StatusUnauthorized, "bad_jwt", "JWT expired")
					return
				}
				WriteError(w, http.StatusUnauthorized, "bad_jwt", "Invalid JWT")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireUser rejects anonymous requests. It must run after Authenticate.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := ClaimsFromContext(r.Context()); err != nil {
			WriteError(w, http.StatusUnauthorized, "no_authorization", "This endpoint requires a valid Bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
