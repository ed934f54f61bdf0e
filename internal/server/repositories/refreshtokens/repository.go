// Package refreshtokens declares the contract for storing refresh tokens
// and implements it on Redis.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/server/models"
)

// Repository defines operations for issuing, consuming, and revoking refresh tokens.
type Repository interface {
	// Create stores token for its user with an expiry of now+validity.
	Create(ctx context.Context, token *models.RefreshToken, validity time.Duration) error

	// Find looks up a refresh token by its opaque token string.
	// It returns common.ErrorNotFound when the token is absent or expired.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Consume is Find followed by Delete as one atomic step, so a token
	// can be exchanged only once.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token. Deleting a non-existent token is not
	// an error.
	Delete(ctx context.Context, token string) error

	// DeleteAllForUser revokes every refresh token issued to userID.
	DeleteAllForUser(ctx context.Context, userID string) error
}
