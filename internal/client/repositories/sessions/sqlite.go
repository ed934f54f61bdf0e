package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/client/models"
	"github.com/dmitrijs2005/factfeed/internal/dbx"
)

var ErrNilSession = errors.New("session is nil")

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Load(ctx context.Context) (*models.Session, error) {
	var (
		s         models.Session
		expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, expires_at, user_id, email
		FROM sessions WHERE id = 1
	`).Scan(&s.AccessToken, &s.RefreshToken, &expiresAt, &s.User.ID, &s.User.Email)
	if dbx.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if expiresAt > 0 {
		s.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	}
	return &s, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s *models.Session) error {
	if s == nil {
		return ErrNilSession
	}

	var expiresAt int64
	if !s.ExpiresAt.IsZero() {
		expiresAt = s.ExpiresAt.Unix()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, access_token, refresh_token, expires_at, user_id, email)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at    = excluded.expires_at,
			user_id       = excluded.user_id,
			email         = excluded.email
	`, s.AccessToken, s.RefreshToken, expiresAt, s.User.ID, s.User.Email)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
