package client

import (
	"context"

	"github.com/dmitrijs2005/factfeed/internal/client/events"
	"github.com/dmitrijs2005/factfeed/internal/client/models"
	"github.com/dmitrijs2005/factfeed/internal/facts"
)

// FactQuery selects rows from the facts table.
type FactQuery struct {
	// Category filters on equality; empty or facts.FilterAll selects all.
	Category string

	// OrderBy names the sort column; empty leaves the order to the service.
	OrderBy facts.VoteColumn

	Ascending bool
}

// FactsTable is the remote table of facts.
type FactsTable interface {
	Select(ctx context.Context, q FactQuery) ([]facts.Fact, error)
	Insert(ctx context.Context, f facts.NewFact) (*facts.Fact, error)
	UpdateVotes(ctx context.Context, id int64, column facts.VoteColumn, value int) (*facts.Fact, error)
	Delete(ctx context.Context, id int64) error
}

// AuthResponse is the provider's answer to sign-in or sign-up. Either field
// may be nil: a sign-up awaiting email confirmation returns neither.
type AuthResponse struct {
	User    *models.Identity
	Session *models.Session
}

// AuthProvider manages the authenticated session.
type AuthProvider interface {
	// GetSession returns the pre-existing session or nil.
	GetSession(ctx context.Context) (*models.Session, error)

	// OnAuthStateChange registers fn for every later session transition.
	OnAuthStateChange(fn func(models.SessionEvent)) events.Subscription

	SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error)
	SignUp(ctx context.Context, email, password string) (*AuthResponse, error)
	SignOut(ctx context.Context) error
	Ping(ctx context.Context) error
}

// SessionStore persists the session between runs.
type SessionStore interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}
