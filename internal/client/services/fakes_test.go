package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/factfeed/internal/client/client"
	"github.com/dmitrijs2005/factfeed/internal/client/events"
	"github.com/dmitrijs2005/factfeed/internal/client/models"
	"github.com/dmitrijs2005/factfeed/internal/facts"
)

// ---- fake auth provider ----

type fakeAuth struct {
	mu  sync.Mutex
	hub *events.Hub[models.SessionEvent]

	// GetSessionGate, when set, blocks GetSession until closed.
	GetSessionGate chan struct{}
	GetSessionRet  *models.Session
	GetSessionErr  error

	SignInRet *client.AuthResponse
	SignInErr error
	SignUpRet *client.AuthResponse
	SignUpErr error

	SignOutErr error

	GetSessionCalls int
	SignOutCalls    int
	LastEmail       string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{hub: events.NewHub[models.SessionEvent]()}
}

func (f *fakeAuth) GetSession(ctx context.Context) (*models.Session, error) {
	f.mu.Lock()
	f.GetSessionCalls++
	gate := f.GetSessionGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.GetSessionRet, f.GetSessionErr
}

func (f *fakeAuth) OnAuthStateChange(fn func(models.SessionEvent)) events.Subscription {
	return f.hub.Subscribe(fn)
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*client.AuthResponse, error) {
	f.mu.Lock()
	f.LastEmail = email
	ret, err := f.SignInRet, f.SignInErr
	f.mu.Unlock()

	if err == nil && ret != nil && ret.Session != nil {
		f.hub.Publish(models.SessionEvent{Type: models.AuthEventSignedIn, Session: ret.Session})
	}
	return ret, err
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (*client.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastEmail = email
	return f.SignUpRet, f.SignUpErr
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.SignOutCalls++
	err := f.SignOutErr
	f.mu.Unlock()

	f.hub.Publish(models.SessionEvent{Type: models.AuthEventSignedOut})
	return err
}

func (f *fakeAuth) Ping(ctx context.Context) error { return nil }

func (f *fakeAuth) emit(t models.AuthEventType, s *models.Session) {
	f.hub.Publish(models.SessionEvent{Type: t, Session: s})
}

func sessionFor(id, email string) *models.Session {
	return &models.Session{AccessToken: "A-" + id, RefreshToken: "R-" + id, User: models.Identity{ID: id, Email: email}}
}

// ---- fake identity source ----

type fakeIdentity struct {
	mu  sync.Mutex
	id  *models.Identity
	hub *events.Hub[*models.Identity]
}

func newFakeIdentity(id *models.Identity) *fakeIdentity {
	return &fakeIdentity{id: id, hub: events.NewHub[*models.Identity]()}
}

func (f *fakeIdentity) CurrentIdentity() *models.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.id == nil {
		return nil
	}
	cp := *f.id
	return &cp
}

func (f *fakeIdentity) OnIdentityChange(fn func(*models.Identity)) events.Subscription {
	return f.hub.Subscribe(fn)
}

func (f *fakeIdentity) set(id *models.Identity) {
	f.mu.Lock()
	f.id = id
	f.mu.Unlock()
	f.hub.Publish(id)
}

var ann = &models.Identity{ID: "u-ann", Email: "ann@example.com"}

// ---- fake facts table ----

type fakeTable struct {
	mu sync.Mutex

	// SelectFn overrides SelectRet/SelectErr when set.
	SelectFn  func(ctx context.Context, q client.FactQuery) ([]facts.Fact, error)
	SelectRet []facts.Fact
	SelectErr error

	InsertRet *facts.Fact
	InsertErr error

	// UpdateGate, when set, blocks UpdateVotes until closed.
	UpdateGate chan struct{}
	UpdateRet  *facts.Fact
	UpdateErr  error

	DeleteErr error

	selectCalls int
	insertCalls int
	updateCalls int
	deleteCalls int

	LastQuery        client.FactQuery
	LastInsert       facts.NewFact
	LastUpdateID     int64
	LastUpdateColumn facts.VoteColumn
	LastUpdateValue  int
	LastDeleteID     int64
}

func (f *fakeTable) Select(ctx context.Context, q client.FactQuery) ([]facts.Fact, error) {
	f.mu.Lock()
	f.selectCalls++
	f.LastQuery = q
	fn, ret, err := f.SelectFn, f.SelectRet, f.SelectErr
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	return append([]facts.Fact(nil), ret...), nil
}

func (f *fakeTable) Insert(ctx context.Context, nf facts.NewFact) (*facts.Fact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	f.LastInsert = nf
	return f.InsertRet, f.InsertErr
}

func (f *fakeTable) UpdateVotes(ctx context.Context, id int64, column facts.VoteColumn, value int) (*facts.Fact, error) {
	f.mu.Lock()
	f.updateCalls++
	f.LastUpdateID, f.LastUpdateColumn, f.LastUpdateValue = id, column, value
	gate := f.UpdateGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.UpdateRet, f.UpdateErr
}

func (f *fakeTable) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	f.LastDeleteID = id
	return f.DeleteErr
}

func (f *fakeTable) calls() (sel, ins, upd, del int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectCalls, f.insertCalls, f.updateCalls, f.deleteCalls
}

// ---- fake alerter ----

type fakeAlerter struct {
	mu       sync.Mutex
	Messages []string
}

func (a *fakeAlerter) Alert(ctx context.Context, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Messages = append(a.Messages, message)
}

func (a *fakeAlerter) messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.Messages...)
}

func ids(list []facts.Fact) []int64 {
	out := make([]int64, 0, len(list))
	for _, f := range list {
		out = append(out, f.ID)
	}
	return out
}
