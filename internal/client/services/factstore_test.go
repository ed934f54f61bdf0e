package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/client/client"
	"github.com/dmitrijs2005/factfeed/internal/client/models"
	"github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boundStore(t *testing.T, table *fakeTable, src *fakeIdentity, opts ...FactStoreOption) (*FactStore, *fakeAlerter) {
	t.Helper()
	alerts := &fakeAlerter{}
	s := NewFactStore(table, alerts, nil, opts...)
	s.Bind(context.Background(), src)
	s.Wait()
	t.Cleanup(s.Close)
	return s, alerts
}

func fact(id int64, cat facts.Category, interesting int) facts.Fact {
	return facts.Fact{ID: id, Text: "fact", Source: "https://example.com", Category: cat, VotesInteresting: interesting}
}

func TestFactStore_IdentityAbsent_EmptyAndNoFetch(t *testing.T) {
	table := &fakeTable{SelectRet: []facts.Fact{fact(1, facts.CategoryNews, 1)}}
	s, _ := boundStore(t, table, newFakeIdentity(nil))

	require.NoError(t, s.Refresh(context.Background()))

	assert.NotNil(t, s.Facts())
	assert.Empty(t, s.Facts())
	sel, _, _, _ := table.calls()
	assert.Zero(t, sel)
}

func TestFactStore_Bind_FetchesForPresentIdentity(t *testing.T) {
	table := &fakeTable{SelectRet: []facts.Fact{fact(1, facts.CategoryNews, 1)}}
	s, _ := boundStore(t, table, newFakeIdentity(ann))

	assert.Equal(t, []int64{1}, ids(s.Facts()))
	assert.Equal(t, client.FactQuery{Category: facts.FilterAll, OrderBy: facts.VotesInteresting}, table.LastQuery)
}

func TestFactStore_ScienceFilter_OrderedByInterestingDesc(t *testing.T) {
	table := &fakeTable{SelectRet: []facts.Fact{
		fact(2, facts.CategoryScience, 5),
		fact(1, facts.CategoryScience, 10),
	}}
	s, _ := boundStore(t, table, newFakeIdentity(ann))

	require.NoError(t, s.SetFilter(context.Background(), "science"))

	got := s.Facts()
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[0].VotesInteresting)
	assert.Equal(t, 5, got[1].VotesInteresting)
	assert.Equal(t, "science", table.LastQuery.Category)
	assert.Equal(t, facts.VotesInteresting, table.LastQuery.OrderBy)
	assert.False(t, table.LastQuery.Ascending)
	assert.Equal(t, "science", s.Filter())
}

func TestFactStore_CategoryFilter_OnlyRequestedCategory(t *testing.T) {
	table := &fakeTable{SelectRet: []facts.Fact{
		fact(1, facts.CategoryHistory, 3),
		fact(2, facts.CategoryNews, 9),
		fact(3, facts.CategoryHistory, 1),
	}}
	s, _ := boundStore(t, table, newFakeIdentity(ann))

	require.NoError(t, s.SetFilter(context.Background(), "history"))
	for _, f := range s.Facts() {
		assert.Equal(t, facts.CategoryHistory, f.Category)
	}
	assert.Equal(t, []int64{1, 3}, ids(s.Facts()))
}

func TestFactStore_SetFilter_Unknown(t *testing.T) {
	table := &fakeTable{}
	s, _ := boundStore(t, table, newFakeIdentity(ann))
	before, _, _, _ := table.calls()

	err := s.SetFilter(context.Background(), "sports")
	require.ErrorIs(t, err, facts.ErrUnknownCategory)

	after, _, _, _ := table.calls()
	assert.Equal(t, before, after)
	assert.Equal(t, facts.FilterAll, s.Filter())
}

func TestFactStore_SetFilter_SameValueDoesNotRefetch(t *testing.T) {
	table := &fakeTable{}
	s, _ := boundStore(t, table, newFakeIdentity(ann))
	before, _, _, _ := table.calls()

	require.NoError(t, s.SetFilter(context.Background(), "all"))

	after, _, _, _ := table.calls()
	assert.Equal(t, before, after)
}

func TestFactStore_FetchFailure_AlertsAndKeepsStaleList(t *testing.T) {
	table := &fakeTable{SelectRet: []facts.Fact{fact(1, facts.CategoryNews, 1), fact(2, facts.CategoryNews, 0)}}
	s, alerts := boundStore(t, table, newFakeIdentity(ann))
	require.Len(t, s.Facts(), 2)

	table.mu.Lock()
	table.SelectErr = client.ErrUnavailable
	table.mu.Unlock()

	err := s.Refresh(context.Background())

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, []string{AlertFetchFailed}, alerts.messages())
	assert.Equal(t, []int64{1, 2}, ids(s.Facts()))
	assert.False(t, s.Loading())
}

func TestFactStore_CanceledFetch_NoAlert(t *testing.T) {
	table := &fakeTable{}
	s, alerts := boundStore(t, table, newFakeIdentity(ann))

	table.mu.Lock()
	table.SelectFn = func(ctx context.Context, q client.FactQuery) ([]facts.Fact, error) {
		return nil, ctx.Err()
	}
	table.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, alerts.messages())
}

func TestFactStore_Logout_ClearsAndDoesNotRefetch(t *testing.T) {
	table := &fakeTable{SelectRet: []facts.Fact{fact(1, facts.CategoryNews, 1)}}
	src := newFakeIdentity(ann)
	s, _ := boundStore(t, table, src)
	require.Len(t, s.Facts(), 1)
	before, _, _, _ := table.calls()

	src.set(nil)
	s.Wait()

	assert.Empty(t, s.Facts())
	require.NoError(t, s.Refresh(context.Background()))
	require.NoError(t, s.SetFilter(context.Background(), "news"))

	after, _, _, _ := table.calls()
	assert.Equal(t, before, after)
	assert.Empty(t, s.Facts())
}

func TestFactStore_Login_TriggersBackgroundFetch(t *testing.T) {
	table := &fakeTable{SelectRet: []facts.Fact{fact(4, facts.CategoryHealth, 2)}}
	src := newFakeIdentity(nil)
	s, _ := boundStore(t, table, src)
	require.Empty(t, s.Facts())

	src.set(ann)
	s.Wait()

	assert.Equal(t, []int64{4}, ids(s.Facts()))
}

func TestFactStore_ResponseAfterLogout_IsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	table := &fakeTable{}
	src := newFakeIdentity(ann)
	s, _ := boundStore(t, table, src)

	table.mu.Lock()
	table.SelectFn = func(ctx context.Context, q client.FactQuery) ([]facts.Fact, error) {
		started <- struct{}{}
		<-release
		return []facts.Fact{fact(1, facts.CategoryNews, 1)}, nil
	}
	table.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()
	<-started

	src.set(nil)
	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, s.Facts())
}

// logoutDuringCheck logs out on the nth identity check after arm and still
// reports the identity it saw before the logout.
type logoutDuringCheck struct {
	*fakeIdentity

	mu    sync.Mutex
	left  int
	armed bool
}

func (l *logoutDuringCheck) arm(n int) {
	l.mu.Lock()
	l.left, l.armed = n, true
	l.mu.Unlock()
}

func (l *logoutDuringCheck) CurrentIdentity() *models.Identity {
	id := l.fakeIdentity.CurrentIdentity()

	l.mu.Lock()
	fire := false
	if l.armed {
		l.left--
		if l.left == 0 {
			l.armed, fire = false, true
		}
	}
	l.mu.Unlock()

	if fire {
		l.fakeIdentity.set(nil)
	}
	return id
}

func TestFactStore_LogoutBetweenCheckAndApply_KeepsCacheEmpty(t *testing.T) {
	table := &fakeTable{SelectRet: []facts.Fact{fact(1, facts.CategoryNews, 1)}}
	src := &logoutDuringCheck{fakeIdentity: newFakeIdentity(ann)}

	s := NewFactStore(table, &fakeAlerter{}, nil)
	s.Bind(context.Background(), src)
	s.Wait()
	t.Cleanup(s.Close)
	require.Len(t, s.Facts(), 1)

	// first check is in Refresh, the second one right before the list is applied
	src.arm(2)
	require.NoError(t, s.Refresh(context.Background()))

	assert.Nil(t, src.fakeIdentity.CurrentIdentity())
	assert.Empty(t, s.Facts())
}

func TestFactStore_Loading_TrueWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	table := &fakeTable{}
	s, _ := boundStore(t, table, newFakeIdentity(ann))
	assert.False(t, s.Loading())

	table.mu.Lock()
	table.SelectFn = func(ctx context.Context, q client.FactQuery) ([]facts.Fact, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	}
	table.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()
	<-started

	assert.True(t, s.Loading())
	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Loading())
}

// overlappingFetches issues a slow "science" fetch followed by a fast
// "news" fetch; the slow one answers last.
func overlappingFetches(t *testing.T, opts ...FactStoreOption) *FactStore {
	t.Helper()
	slowRelease := make(chan struct{})
	slowStarted := make(chan struct{})

	table := &fakeTable{}
	s, _ := boundStore(t, table, newFakeIdentity(ann), opts...)

	table.mu.Lock()
	table.SelectFn = func(ctx context.Context, q client.FactQuery) ([]facts.Fact, error) {
		if q.Category == "science" {
			close(slowStarted)
			<-slowRelease
			return []facts.Fact{fact(1, facts.CategoryScience, 1)}, nil
		}
		return []facts.Fact{fact(2, facts.CategoryNews, 1)}, nil
	}
	table.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.SetFilter(context.Background(), "science")
	}()
	<-slowStarted

	require.NoError(t, s.SetFilter(context.Background(), "news"))
	require.Equal(t, []int64{2}, ids(s.Facts()))

	close(slowRelease)
	wg.Wait()
	return s
}

func TestFactStore_OverlappingFetches_LastResponseWinsByDefault(t *testing.T) {
	s := overlappingFetches(t)
	assert.Equal(t, []int64{1}, ids(s.Facts()))
}

func TestFactStore_OverlappingFetches_StaleDiscarded(t *testing.T) {
	s := overlappingFetches(t, WithStaleFetchDiscard(true))
	assert.Equal(t, []int64{2}, ids(s.Facts()))
	assert.Equal(t, "news", s.Filter())
}

func TestFactStore_Patches(t *testing.T) {
	table := &fakeTable{SelectRet: []facts.Fact{
		fact(5, facts.CategoryNews, 9),
		fact(6, facts.CategoryNews, 7),
		fact(7, facts.CategoryNews, 3),
	}}
	s, _ := boundStore(t, table, newFakeIdentity(ann))

	var changes int
	s.OnChange(func([]facts.Fact) { changes++ })

	s.Prepend(fact(8, facts.CategoryNews, 0))
	assert.Equal(t, []int64{8, 5, 6, 7}, ids(s.Facts()))

	updated := fact(6, facts.CategoryNews, 8)
	s.ReplaceByID(6, updated)
	got, ok := s.FactByID(6)
	require.True(t, ok)
	assert.Equal(t, 8, got.VotesInteresting)
	assert.Equal(t, []int64{8, 5, 6, 7}, ids(s.Facts()))

	s.RemoveByID(5)
	assert.Equal(t, []int64{8, 6, 7}, ids(s.Facts()))

	s.RemoveByID(99)
	s.ReplaceByID(99, fact(99, facts.CategoryNews, 0))
	_, ok = s.FactByID(99)
	assert.False(t, ok)

	assert.Equal(t, 3, changes)
}

func TestFactStore_Facts_ReturnsCopy(t *testing.T) {
	table := &fakeTable{SelectRet: []facts.Fact{fact(1, facts.CategoryNews, 1)}}
	s, _ := boundStore(t, table, newFakeIdentity(ann))

	list := s.Facts()
	list[0].VotesInteresting = 100

	got, _ := s.FactByID(1)
	assert.Equal(t, 1, got.VotesInteresting)
}

func TestFactStore_Close_StopsReactingToIdentity(t *testing.T) {
	table := &fakeTable{}
	src := newFakeIdentity(nil)
	s := NewFactStore(table, nil, nil)
	s.Bind(context.Background(), src)
	s.Close()
	s.Close()

	assert.Zero(t, src.hub.Len())
	src.set(ann)

	time.Sleep(10 * time.Millisecond)
	sel, _, _, _ := table.calls()
	assert.Zero(t, sel)
}

func TestFetchError_Message(t *testing.T) {
	err := &FetchError{Category: "news", Err: errors.New("boom")}
	assert.Equal(t, "fetch facts (category news): boom", err.Error())
}
