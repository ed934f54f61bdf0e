package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/factfeed/internal/client/client"
	"github.com/dmitrijs2005/factfeed/internal/client/models"
	"github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/dmitrijs2005/factfeed/internal/logging"
)

// MutationCoordinator writes to the remote facts table on behalf of the
// current identity and patches the cache with the service's answer.
//
// Insert and vote failures are deliberately silent: they are logged and
// returned, but the user is not alerted. Delete failures raise an alert.
type MutationCoordinator struct {
	table    client.FactsTable
	cache    FactCache
	identity IdentitySource
	alerter  Alerter
	log      logging.Logger

	mu       sync.Mutex
	updating map[int64]struct{}
}

func NewMutationCoordinator(table client.FactsTable, cache FactCache, identity IdentitySource, alerter Alerter, log logging.Logger) *MutationCoordinator {
	if alerter == nil {
		alerter = IgnoreAlerts
	}
	if log == nil {
		log = logging.Nop()
	}
	return &MutationCoordinator{
		table:    table,
		cache:    cache,
		identity: identity,
		alerter:  alerter,
		log:      log.With("module", "mutations"),
		updating: make(map[int64]struct{}),
	}
}

func (m *MutationCoordinator) requireIdentity() (*models.Identity, error) {
	id := m.identity.CurrentIdentity()
	if id == nil {
		return nil, ErrNotAuthenticated
	}
	return id, nil
}

// Insert validates the form and posts it as a new fact authored by the
// current identity. An invalid form is returned untouched with the
// validation error. Once the request was sent the form is reset whatever
// the outcome.
func (m *MutationCoordinator) Insert(ctx context.Context, form *models.FactForm) error {
	id, err := m.requireIdentity()
	if err != nil {
		return err
	}

	nf := form.NewFact(id.ID)
	if err := nf.Validate(); err != nil {
		return err
	}

	created, err := m.table.Insert(ctx, nf)
	form.Reset()
	if err != nil {
		m.log.Warn(ctx, "insert failed", "category", string(nf.Category), "error", err)
		return &MutationError{Op: OpInsert, Err: err}
	}

	m.cache.Prepend(*created)
	m.log.Info(ctx, "fact inserted", "id", created.ID, "category", string(created.Category))
	return nil
}

// Vote adds one to column of fact id, based on the cached counter. While
// the request is in flight the fact is busy and further votes or deletes
// on it are refused with ErrFactBusy.
func (m *MutationCoordinator) Vote(ctx context.Context, id int64, column facts.VoteColumn) error {
	if _, err := m.requireIdentity(); err != nil {
		return err
	}
	if !column.Valid() {
		return fmt.Errorf("%w: %q", facts.ErrUnknownColumn, string(column))
	}

	m.mu.Lock()
	if _, busy := m.updating[id]; busy {
		m.mu.Unlock()
		return ErrFactBusy
	}
	current, ok := m.cache.FactByID(id)
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("vote on fact %d: %w", id, ErrFactNotCached)
	}
	m.updating[id] = struct{}{}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.updating, id)
		m.mu.Unlock()
	}()

	updated, err := m.table.UpdateVotes(ctx, id, column, current.Votes(column)+1)
	if err != nil {
		m.log.Warn(ctx, "vote failed", "id", id, "column", string(column), "error", err)
		return &MutationError{Op: OpVote, FactID: id, Err: err}
	}

	m.cache.ReplaceByID(id, *updated)
	return nil
}

// IsUpdating reports whether a vote on fact id is in flight.
func (m *MutationCoordinator) IsUpdating(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.updating[id]
	return ok
}

// Delete removes fact id. Any authenticated user may delete any fact.
func (m *MutationCoordinator) Delete(ctx context.Context, id int64) error {
	if _, err := m.requireIdentity(); err != nil {
		return err
	}
	if m.IsUpdating(id) {
		return ErrFactBusy
	}

	if err := m.table.Delete(ctx, id); err != nil {
		m.log.Error(ctx, "delete failed", "id", id, "error", err)
		m.alerter.Alert(ctx, AlertDeleteFailed)
		return &MutationError{Op: OpDelete, FactID: id, Err: err}
	}

	m.cache.RemoveByID(id)
	m.log.Info(ctx, "fact deleted", "id", id)
	return nil
}
