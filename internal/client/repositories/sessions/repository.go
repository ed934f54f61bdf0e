package sessions

import (
	"context"

	"github.com/dmitrijs2005/factfeed/internal/client/models"
)

// Repository stores the single current session. Load returns (nil, nil)
// when nothing is stored.
type Repository interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}
