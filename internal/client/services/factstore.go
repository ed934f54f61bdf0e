package services

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/dmitrijs2005/factfeed/internal/client/client"
	"github.com/dmitrijs2005/factfeed/internal/client/events"
	"github.com/dmitrijs2005/factfeed/internal/client/models"
	"github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/dmitrijs2005/factfeed/internal/logging"
)

// FactCache is the patch interface MutationCoordinator uses.
type FactCache interface {
	FactByID(id int64) (facts.Fact, bool)
	Prepend(f facts.Fact)
	ReplaceByID(id int64, f facts.Fact)
	RemoveByID(id int64)
}

type FactStoreOption func(*FactStore)

// WithStaleFetchDiscard drops fetch responses that arrive after a newer
// fetch was issued. By default the last response to arrive wins.
func WithStaleFetchDiscard(on bool) FactStoreOption {
	return func(s *FactStore) { s.discardStale = on }
}

// FactStore caches the fact list for the selected category and refetches
// it when the filter or the identity changes.
type FactStore struct {
	table   client.FactsTable
	alerter Alerter
	log     logging.Logger

	discardStale bool

	mu       sync.Mutex
	identity IdentitySource
	facts    []facts.Fact
	filter   string
	inFlight int
	seq      uint64
	// clearGen counts clears; a fetch started before a clear is dropped.
	clearGen uint64
	sub      events.Subscription
	bindCtx  context.Context
	cancel   context.CancelFunc
	closed   bool
	wg       sync.WaitGroup

	changes *events.Hub[[]facts.Fact]
}

var _ FactCache = (*FactStore)(nil)

func NewFactStore(table client.FactsTable, alerter Alerter, log logging.Logger, opts ...FactStoreOption) *FactStore {
	if alerter == nil {
		alerter = IgnoreAlerts
	}
	if log == nil {
		log = logging.Nop()
	}
	s := &FactStore{
		table:   table,
		alerter: alerter,
		log:     log.With("module", "fact_store"),
		facts:   []facts.Fact{},
		filter:  facts.FilterAll,
		changes: events.NewHub[[]facts.Fact](),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Bind attaches the store to an identity source. The current identity is
// applied straight away and every later change triggers a background
// refetch bound to ctx. Bind may be called once.
func (s *FactStore) Bind(ctx context.Context, src IdentitySource) {
	s.mu.Lock()
	if s.identity != nil {
		s.mu.Unlock()
		return
	}
	s.identity = src
	s.bindCtx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	sub := src.OnIdentityChange(s.onIdentityChange)

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	s.onIdentityChange(src.CurrentIdentity())
}

func (s *FactStore) onIdentityChange(id *models.Identity) {
	if id == nil {
		s.clear()
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	ctx := s.bindCtx
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		_ = s.Refresh(ctx)
	}()
}

// SetFilter selects "all" or a category and refetches when it changed.
func (s *FactStore) SetFilter(ctx context.Context, filter string) error {
	f, err := facts.ParseFilter(filter)
	if err != nil {
		return err
	}

	s.mu.Lock()
	changed := s.filter != f
	s.filter = f
	s.mu.Unlock()

	if !changed {
		return nil
	}
	return s.Refresh(ctx)
}

// Filter returns the selected filter.
func (s *FactStore) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Refresh fetches the list for the current filter. Without an identity the
// list is emptied and nothing is fetched. On failure the user is alerted
// and the previous list is kept.
//
// The cached list is filtered on the client: rows whose category differs
// from the filter are dropped and the rest is ordered by votesInteresting.
func (s *FactStore) Refresh(ctx context.Context) error {
	if !s.authenticated() {
		s.clear()
		return nil
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	gen := s.clearGen
	filter := s.filter
	s.inFlight++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	list, err := s.table.Select(ctx, client.FactQuery{
		Category: filter,
		OrderBy:  facts.VotesInteresting,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return err
		}
		s.log.Error(ctx, "fetch failed", "category", filter, "error", err)
		s.alerter.Alert(ctx, AlertFetchFailed)
		return &FetchError{Category: filter, Err: err}
	}

	s.apply(ctx, seq, gen, filter, list)
	return nil
}

func (s *FactStore) apply(ctx context.Context, seq, gen uint64, filter string, list []facts.Fact) {
	list = normalize(filter, list)

	// a response that lands after logout must not resurface the list
	if !s.authenticated() {
		s.log.Debug(ctx, "fetch discarded after logout", "seq", seq)
		return
	}

	s.mu.Lock()
	if gen != s.clearGen {
		s.mu.Unlock()
		s.log.Debug(ctx, "fetch discarded after logout", "seq", seq)
		return
	}
	if s.discardStale && seq < s.seq {
		latest := s.seq
		s.mu.Unlock()
		s.log.Debug(ctx, "stale fetch discarded", "seq", seq, "latest", latest)
		return
	}
	s.facts = list
	snapshot := slices.Clone(list)
	s.mu.Unlock()

	s.changes.Publish(snapshot)
	s.log.Debug(ctx, "facts fetched", "category", filter, "count", len(list))
}

// normalize keeps only rows of the requested category and orders them by
// votesInteresting, highest first. Ties keep the service's order.
func normalize(filter string, list []facts.Fact) []facts.Fact {
	out := make([]facts.Fact, 0, len(list))
	for _, f := range list {
		if filter != facts.FilterAll && string(f.Category) != filter {
			continue
		}
		out = append(out, f)
	}
	slices.SortStableFunc(out, func(a, b facts.Fact) int {
		return b.VotesInteresting - a.VotesInteresting
	})
	return out
}

func (s *FactStore) authenticated() bool {
	s.mu.Lock()
	src := s.identity
	s.mu.Unlock()
	return src != nil && src.CurrentIdentity() != nil
}

// Loading reports whether a fetch is in flight.
func (s *FactStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// Facts returns a copy of the cached list.
func (s *FactStore) Facts() []facts.Fact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.facts)
}

func (s *FactStore) FactByID(id int64) (facts.Fact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.facts {
		if f.ID == id {
			return f, true
		}
	}
	return facts.Fact{}, false
}

// Prepend puts f at the head of the list.
func (s *FactStore) Prepend(f facts.Fact) {
	s.mu.Lock()
	s.facts = append([]facts.Fact{f}, s.facts...)
	snapshot := slices.Clone(s.facts)
	s.mu.Unlock()
	s.changes.Publish(snapshot)
}

// ReplaceByID swaps the cached record with the given id for f. Other
// records and the order are untouched.
func (s *FactStore) ReplaceByID(id int64, f facts.Fact) {
	s.mu.Lock()
	found := false
	for i := range s.facts {
		if s.facts[i].ID == id {
			s.facts[i] = f
			found = true
		}
	}
	snapshot := slices.Clone(s.facts)
	s.mu.Unlock()
	if found {
		s.changes.Publish(snapshot)
	}
}

// RemoveByID drops the record with the given id, keeping the order.
func (s *FactStore) RemoveByID(id int64) {
	s.mu.Lock()
	n := len(s.facts)
	s.facts = slices.DeleteFunc(s.facts, func(f facts.Fact) bool { return f.ID == id })
	removed := len(s.facts) != n
	snapshot := slices.Clone(s.facts)
	s.mu.Unlock()
	if removed {
		s.changes.Publish(snapshot)
	}
}

// OnChange registers fn for every change of the cached list.
func (s *FactStore) OnChange(fn func([]facts.Fact)) events.Subscription {
	return s.changes.Subscribe(fn)
}

func (s *FactStore) clear() {
	s.mu.Lock()
	wasEmpty := len(s.facts) == 0
	s.facts = []facts.Fact{}
	s.clearGen++
	s.mu.Unlock()
	if !wasEmpty {
		s.changes.Publish([]facts.Fact{})
	}
}

// Wait blocks until background refetches started so far have finished.
func (s *FactStore) Wait() {
	s.wg.Wait()
}

// Close stops reacting to identity changes and cancels background fetches.
func (s *FactStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sub, cancel := s.sub, s.cancel
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}
