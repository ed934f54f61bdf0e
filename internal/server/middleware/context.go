// Package middleware holds the HTTP middleware chain of the service:
// api key and bearer token checks, request logging, metrics, rate limiting
// and panic recovery.
package middleware

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/factfeed/internal/server/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// ErrNoUser means the request carries no user token.
var ErrNoUser = errors.New("no authenticated user in context")

// WithClaims stores the verified token claims in ctx.
func WithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext returns the claims put there by Authenticate.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, error) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	if !ok || c == nil {
		return nil, ErrNoUser
	}
	return c, nil
}

// UserIDFromContext is ClaimsFromContext reduced to the subject.
func UserIDFromContext(ctx context.Context) (string, error) {
	c, err := ClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}
