// Package users declares and implements storage of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/factfeed/internal/server/models"
)

type Repository interface {
	// Create inserts user and returns it with CreatedAt filled in. A taken
	// email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail returns common.ErrorNotFound when no account matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns common.ErrorNotFound when no account matches.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
