package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/factfeed/internal/common"
	"github.com/dmitrijs2005/factfeed/internal/dbx"
	domain "github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/facts"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/repomanager"
)

// FactService applies the fact rules on top of the facts repository. Any
// signed-in user may vote on or delete any fact.
type FactService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewFactService(db *sql.DB, m repomanager.RepositoryManager) *FactService {
	return &FactService{db: db, repomanager: m}
}

func validation(err error) error {
	return fmt.Errorf("%w: %w", common.ErrorValidation, err)
}

// List returns the facts matching q.
func (s *FactService) List(ctx context.Context, q facts.Query) ([]domain.Fact, error) {
	if q.Category != "" && !q.Category.Valid() {
		// no row can match; the table constraint forbids it
		return []domain.Fact{}, nil
	}
	if q.OrderBy != "" && !facts.ValidOrderColumn(q.OrderBy) {
		return nil, validation(fmt.Errorf("%w: %q", domain.ErrUnknownColumn, q.OrderBy))
	}
	return s.repomanager.Facts(s.db).List(ctx, q)
}

// Create validates every item and inserts them in one transaction, all or
// nothing. Each new fact is attributed to userID.
func (s *FactService) Create(ctx context.Context, userID string, items []domain.NewFact) ([]domain.Fact, error) {
	if len(items) == 0 {
		return nil, validation(fmt.Errorf("no facts to insert"))
	}
	for i := range items {
		items[i].AuthorID = userID
		if err := items[i].Validate(); err != nil {
			return nil, validation(err)
		}
	}

	created := make([]domain.Fact, 0, len(items))
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Facts(tx)
		for _, nf := range items {
			f, err := repo.Create(ctx, nf)
			if err != nil {
				return err
			}
			created = append(created, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateVotes sets vote counters on fact id. Counters must be non-negative
// and no other column may be changed.
func (s *FactService) UpdateVotes(ctx context.Context, id int64, votes map[domain.VoteColumn]int) ([]domain.Fact, error) {
	if len(votes) == 0 {
		return nil, validation(fmt.Errorf("no columns to update"))
	}
	for c, v := range votes {
		if !c.Valid() {
			return nil, validation(fmt.Errorf("%w: %q", domain.ErrUnknownColumn, c))
		}
		if v < 0 {
			return nil, validation(fmt.Errorf("%s must not be negative", c))
		}
	}
	return s.repomanager.Facts(s.db).UpdateVotes(ctx, id, votes)
}

// Delete removes fact id and returns what was deleted.
func (s *FactService) Delete(ctx context.Context, id int64) ([]domain.Fact, error) {
	return s.repomanager.Facts(s.db).Delete(ctx, id)
}

// Snapshot reads the whole table in a read-only repeatable-read transaction.
func (s *FactService) Snapshot(ctx context.Context) ([]domain.Fact, error) {
	var list []domain.Fact
	err := dbx.WithTx(ctx, s.db, dbx.ReadOnlySnapshot, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		list, err = s.repomanager.Facts(tx).List(ctx, facts.Query{Ascending: true})
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}
