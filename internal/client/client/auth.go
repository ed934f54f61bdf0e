package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/client/events"
	"github.com/dmitrijs2005/factfeed/internal/client/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *userResponse `json:"user"`
}

// signupResponse is either a token response (auto-confirmed accounts) or a
// bare user object (confirmation pending). Some deployments return {}.
type signupResponse struct {
	tokenResponse
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *HTTPClient) toSession(t tokenResponse) *models.Session {
	s := &models.Session{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	}
	if t.User != nil {
		s.User = models.Identity{ID: t.User.ID, Email: t.User.Email}
	}
	return s
}

// OnAuthStateChange registers fn for session transitions made through c.
func (c *HTTPClient) OnAuthStateChange(fn func(models.SessionEvent)) events.Subscription {
	return c.events.Subscribe(fn)
}

// GetSession returns the current session, loading it from the store on
// first use. An expired access token is refreshed before returning.
func (c *HTTPClient) GetSession(ctx context.Context) (*models.Session, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s := c.currentSession()
	if s == nil {
		return nil, nil
	}
	if s.Expired(c.now()) && s.RefreshToken != "" {
		return c.refresh(ctx, s.RefreshToken)
	}
	return s, nil
}

func (c *HTTPClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	var t tokenResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      authPath + "/token",
		query:     url.Values{"grant_type": {"password"}},
		body:      credentials{Email: email, Password: password},
		anonymous: true,
	}, &t)
	if err != nil {
		return nil, err
	}
	if t.AccessToken == "" {
		return nil, fmt.Errorf("sign in: %w", errors.New("service returned no session"))
	}

	s := c.toSession(t)
	c.setSession(ctx, s)
	c.events.Publish(models.SessionEvent{Type: models.AuthEventSignedIn, Session: s})

	user := s.User
	return &AuthResponse{User: &user, Session: s}, nil
}

func (c *HTTPClient) SignUp(ctx context.Context, email, password string) (*AuthResponse, error) {
	var r signupResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      authPath + "/signup",
		body:      credentials{Email: email, Password: password},
		anonymous: true,
	}, &r)
	if err != nil {
		return nil, err
	}

	switch {
	case r.AccessToken != "":
		s := c.toSession(r.tokenResponse)
		c.setSession(ctx, s)
		c.events.Publish(models.SessionEvent{Type: models.AuthEventSignedIn, Session: s})
		return &AuthResponse{Session: s}, nil
	case r.ID != "":
		return &AuthResponse{User: &models.Identity{ID: r.ID, Email: r.Email}}, nil
	default:
		return &AuthResponse{}, nil
	}
}

// SignOut revokes the session remotely and always forgets it locally.
func (c *HTTPClient) SignOut(ctx context.Context) error {
	if err := c.ensureLoaded(ctx); err != nil {
		c.log.Warn(ctx, "session load failed before sign out", "error", err)
	}

	var remoteErr error
	if c.currentSession() != nil {
		remoteErr = c.do(ctx, request{
			method:    http.MethodPost,
			path:      authPath + "/logout",
			noRefresh: true,
		}, nil)
	}

	c.clearSession(ctx)

	if remoteErr != nil && !errors.Is(remoteErr, ErrUnauthorized) {
		return fmt.Errorf("sign out: %w", remoteErr)
	}
	return nil
}

// User fetches the account behind the current access token.
func (c *HTTPClient) User(ctx context.Context) (*models.Identity, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if c.currentSession() == nil {
		return nil, ErrUnauthorized
	}

	var u userResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: authPath + "/user"}, &u); err != nil {
		return nil, err
	}
	return &models.Identity{ID: u.ID, Email: u.Email}, nil
}

// Ping checks that the auth service answers.
func (c *HTTPClient) Ping(ctx context.Context) error {
	err := c.do(ctx, request{method: http.MethodGet, path: authPath + "/health", anonymous: true}, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}
	return nil
}

// refresh exchanges refreshToken for a new session. Concurrent callers
// holding the same stale token share one exchange.
func (c *HTTPClient) refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if s := c.currentSession(); s != nil && s.RefreshToken != refreshToken {
		return s, nil
	}

	var t tokenResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      authPath + "/token",
		query:     url.Values{"grant_type": {"refresh_token"}},
		body:      map[string]string{"refresh_token": refreshToken},
		anonymous: true,
	}, &t)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			c.log.Info(ctx, "refresh token rejected, signing out", "status", apiErr.Status)
			c.clearSession(ctx)
			return nil, fmt.Errorf("refresh session: %w", ErrUnauthorized)
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	s := c.toSession(t)
	if s.User.ID == "" {
		if prev := c.currentSession(); prev != nil {
			s.User = prev.User
		}
	}
	c.setSession(ctx, s)
	c.events.Publish(models.SessionEvent{Type: models.AuthEventTokenRefreshed, Session: s})
	return s, nil
}

func (c *HTTPClient) ensureLoaded(ctx context.Context) error {
	c.mu.Lock()
	if c.loaded || c.store == nil {
		c.loaded = true
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	s, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.session = s
		c.loaded = true
	}
	return nil
}

func (c *HTTPClient) currentSession() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	cp := *c.session
	return &cp
}

func (c *HTTPClient) setSession(ctx context.Context, s *models.Session) {
	c.mu.Lock()
	cp := *s
	c.session = &cp
	c.loaded = true
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(ctx, s); err != nil {
			c.log.Warn(ctx, "session not persisted", "error", err)
		}
	}
}

func (c *HTTPClient) clearSession(ctx context.Context) {
	c.mu.Lock()
	had := c.session != nil
	c.session = nil
	c.loaded = true
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(ctx); err != nil {
			c.log.Warn(ctx, "stored session not cleared", "error", err)
		}
	}
	if had {
		c.events.Publish(models.SessionEvent{Type: models.AuthEventSignedOut})
	}
}
