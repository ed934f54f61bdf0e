package services

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/factfeed/internal/client/client"
	"github.com/dmitrijs2005/factfeed/internal/client/events"
	"github.com/dmitrijs2005/factfeed/internal/client/models"
	"github.com/dmitrijs2005/factfeed/internal/logging"
)

// IdentitySource is the read side of SessionManager that other components
// depend on.
type IdentitySource interface {
	CurrentIdentity() *models.Identity
	OnIdentityChange(fn func(*models.Identity)) events.Subscription
}

type SignupOutcome int

const (
	SignupLoggedIn SignupOutcome = iota + 1
	SignupConfirmationPending
)

// SignupResult describes how a successful signup call ended.
type SignupResult struct {
	Outcome  SignupOutcome
	Identity *models.Identity
	// Message is set for SignupConfirmationPending.
	Message string
}

// SessionManager owns the current identity. It follows the provider's
// session events and restores a pre-existing session on Start.
type SessionManager struct {
	auth client.AuthProvider
	log  logging.Logger

	// publishMu serializes identity updates with their notification so
	// observers see changes in the order they were stored.
	publishMu sync.Mutex

	mu        sync.Mutex
	identity  *models.Identity
	sub       events.Subscription
	started   bool
	eventSeen bool
	ready     chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	changes *events.Hub[*models.Identity]
}

var _ IdentitySource = (*SessionManager)(nil)

func NewSessionManager(auth client.AuthProvider, log logging.Logger) *SessionManager {
	if log == nil {
		log = logging.Nop()
	}
	return &SessionManager{
		auth:    auth,
		log:     log.With("module", "session_manager"),
		ready:   make(chan struct{}),
		changes: events.NewHub[*models.Identity](),
	}
}

// Start subscribes to session events and restores the existing session in
// the background. Calling Start again before Close is a no-op.
func (m *SessionManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	m.started = true
	m.eventSeen = false

	select {
	case <-m.ready:
		m.ready = make(chan struct{})
	default:
	}

	m.sub = m.auth.OnAuthStateChange(m.handleEvent)

	restoreCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	ready := m.ready

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(ready)
		m.restore(restoreCtx)
	}()

	return nil
}

// Ready is closed once the restore started by the latest Start finished.
func (m *SessionManager) Ready() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *SessionManager) restore(ctx context.Context) {
	s, err := m.auth.GetSession(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.log.Warn(ctx, "session restore failed", "error", err)
		}
		return
	}

	var id *models.Identity
	if s != nil {
		u := s.User
		id = &u
	}

	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	m.mu.Lock()
	if m.eventSeen || !m.started {
		// a session event arrived meanwhile and is at least as recent
		m.mu.Unlock()
		m.log.Debug(ctx, "session restore superseded by event")
		return
	}
	changed := !sameUser(m.identity, id)
	m.identity = cloneIdentity(id)
	m.mu.Unlock()

	if changed {
		m.changes.Publish(cloneIdentity(id))
		if id != nil {
			m.log.Info(ctx, "session restored", "user_id", id.ID)
		}
	}
}

func (m *SessionManager) handleEvent(e models.SessionEvent) {
	m.mu.Lock()
	m.eventSeen = true
	m.mu.Unlock()

	var id *models.Identity
	if e.Session != nil {
		u := e.Session.User
		id = &u
	}
	m.log.Debug(context.Background(), "auth event", "type", string(e.Type), "signed_in", id != nil)
	m.setIdentity(id)
}

// setIdentity stores id and notifies observers when the user changed.
// Observers must not call back into setIdentity.
func (m *SessionManager) setIdentity(id *models.Identity) {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	m.mu.Lock()
	changed := !sameUser(m.identity, id)
	m.identity = cloneIdentity(id)
	m.mu.Unlock()

	if changed {
		m.changes.Publish(cloneIdentity(id))
	}
}

func sameUser(a, b *models.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

func cloneIdentity(id *models.Identity) *models.Identity {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}

// CurrentIdentity returns a copy of the identity, or nil when logged out.
func (m *SessionManager) CurrentIdentity() *models.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneIdentity(m.identity)
}

// OnIdentityChange registers fn for every change of user, including the
// transition to logged out (nil). Handlers run synchronously in order.
func (m *SessionManager) OnIdentityChange(fn func(*models.Identity)) events.Subscription {
	return m.changes.Subscribe(fn)
}

// Login signs in with email and password.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	resp, err := m.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.log.Info(ctx, "login failed", "error", err)
		return nil, &AuthError{Op: "login", Message: providerMessage(err), Err: err}
	}

	id := identityOf(resp)
	if id == nil {
		return nil, &AuthError{Op: "login", Message: "no session returned", Err: client.ErrUnauthorized}
	}
	m.setIdentity(id)
	return cloneIdentity(id), nil
}

// Signup creates an account. The provider answers with a user, a session,
// or neither; the last case means the account awaits email confirmation and
// is not an error.
func (m *SessionManager) Signup(ctx context.Context, email, password string) (SignupResult, error) {
	resp, err := m.auth.SignUp(ctx, email, password)
	if err != nil {
		m.log.Info(ctx, "signup failed", "error", err)
		return SignupResult{}, &AuthError{Op: "signup", Message: providerMessage(err), Err: err}
	}

	switch {
	case resp != nil && resp.User != nil:
		m.setIdentity(resp.User)
		return SignupResult{Outcome: SignupLoggedIn, Identity: cloneIdentity(resp.User)}, nil
	case resp != nil && resp.Session != nil:
		u := resp.Session.User
		m.setIdentity(&u)
		return SignupResult{Outcome: SignupLoggedIn, Identity: &u}, nil
	default:
		return SignupResult{Outcome: SignupConfirmationPending, Message: SignupConfirmationMessage}, nil
	}
}

// Logout signs out at the provider and clears the identity whatever the
// provider answered. The provider error, if any, is returned.
func (m *SessionManager) Logout(ctx context.Context) error {
	err := m.auth.SignOut(ctx)
	if err != nil {
		m.log.Warn(ctx, "sign out failed, clearing identity anyway", "error", err)
	}
	m.setIdentity(nil)
	return err
}

// Close releases the event subscription and stops a pending restore.
// It is safe to call more than once.
func (m *SessionManager) Close() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	sub, cancel := m.sub, m.cancel
	m.sub, m.cancel = nil, nil
	m.mu.Unlock()

	sub.Unsubscribe()
	cancel()
	m.wg.Wait()
}

func identityOf(resp *client.AuthResponse) *models.Identity {
	switch {
	case resp == nil:
		return nil
	case resp.User != nil:
		return resp.User
	case resp.Session != nil:
		u := resp.Session.User
		return &u
	}
	return nil
}

func providerMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
