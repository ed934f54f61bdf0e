// Package facts declares and implements storage of facts.
package facts

import (
	"context"

	domain "github.com/dmitrijs2005/factfeed/internal/facts"
)

// Order columns besides the vote counters.
const (
	OrderByID        = "id"
	OrderByCreatedAt = "created_at"
)

// Query selects facts. Zero values mean "no constraint"; an empty OrderBy
// sorts by id.
type Query struct {
	ID        *int64
	Category  domain.Category
	OrderBy   string
	Ascending bool
	Limit     int
}

type Repository interface {
	List(ctx context.Context, q Query) ([]domain.Fact, error)
	Create(ctx context.Context, nf domain.NewFact) (domain.Fact, error)
	// UpdateVotes sets the given counters on fact id and returns the
	// updated rows, none if the id does not exist.
	UpdateVotes(ctx context.Context, id int64, votes map[domain.VoteColumn]int) ([]domain.Fact, error)
	// Delete removes fact id and returns the deleted rows.
	Delete(ctx context.Context, id int64) ([]domain.Fact, error)
}

// ValidOrderColumn reports whether facts can be sorted by name.
func ValidOrderColumn(name string) bool {
	switch name {
	case OrderByID, OrderByCreatedAt:
		return true
	}
	return domain.VoteColumn(name).Valid()
}
