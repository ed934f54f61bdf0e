// Package handler serves the Supabase-compatible HTTP surface of the
// service: GoTrue-style auth under /auth/v1 and a PostgREST-style facts
// table under /rest/v1/facts.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	domain "github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/dmitrijs2005/factfeed/internal/server/models"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/facts"
	"github.com/dmitrijs2005/factfeed/internal/server/services"
)

// UserService is the part of services.UserService the handlers use.
type UserService interface {
	Signup(ctx context.Context, email, password string) (*models.User, *services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.Session, error)
	Logout(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// FactService is the part of services.FactService the handlers use.
type FactService interface {
	List(ctx context.Context, q facts.Query) ([]domain.Fact, error)
	Create(ctx context.Context, userID string, items []domain.NewFact) ([]domain.Fact, error)
	UpdateVotes(ctx context.Context, id int64, votes map[domain.VoteColumn]int) ([]domain.Fact, error)
	Delete(ctx context.Context, id int64) ([]domain.Fact, error)
}

var (
	_ UserService = (*services.UserService)(nil)
	_ FactService = (*services.FactService)(nil)
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
