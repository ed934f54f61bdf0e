package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("secret")

const anonKey = "anon"

func okHandler(seen *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen, _ = UserIDFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var b ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&b))
	return b
}

func TestRequireAPIKey(t *testing.T) {
	h := RequireAPIKey("key")(okHandler(nil))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"header", "key", "", http.StatusOK},
		{"query", "", "?apikey=key", http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong", "nope", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/rest/v1/facts"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("apikey", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	token, err := auth.GenerateToken("u1", "a@b.c", secret, time.Minute)
	require.NoError(t, err)

	var seen string
	h := Authenticate(secret, anonKey)(okHandler(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", seen)
}

func TestAuthenticate_AnonymousPassesThrough(t *testing.T) {
	for _, header := range []string{"", "Bearer " + anonKey} {
		seen := "unset"
		h := Authenticate(secret, anonKey)(okHandler(&seen))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, seen)
	}
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	expired, err := auth.GenerateToken("u1", "a@b.c", secret, -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken("u1", "a@b.c", []byte("other"), time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		msg   string
	}{
		{"expired", expired, "JWT expired"},
		{"wrong key", foreign, "Invalid JWT"},
		{"garbage", "abc.def.ghi", "Invalid JWT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Authenticate(secret, anonKey)(okHandler(nil))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.msg, decodeError(t, w).Msg)
		})
	}
}

func TestRequireUser(t *testing.T) {
	h := RequireUser(okHandler(nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	claims := &auth.Claims{}
	claims.Subject = "u1"
	req = req.WithContext(WithClaims(context.Background(), claims))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserIDFromContext_Empty(t *testing.T) {
	_, err := UserIDFromContext(context.Background())
	require.ErrorIs(t, err, ErrNoUser)
}
