// Package models defines client-side data models used by the factfeed CLI.
package models

import "time"

// Identity is the authenticated principal. It is only ever read from a
// Session.
type Identity struct {
	// ID is the provider-assigned user id, bound as the author of new facts.
	ID string `json:"id"`

	// Email the account was registered with.
	Email string `json:"email"`
}

// Session is the provider's proof of authentication.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         Identity  `json:"user"`
}

// Expired reports whether the access token is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthEventType names a session transition pushed by the provider.
type AuthEventType string

const (
	AuthEventInitialSession AuthEventType = "INITIAL_SESSION"
	AuthEventSignedIn       AuthEventType = "SIGNED_IN"
	AuthEventSignedOut      AuthEventType = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	AuthEventUserUpdated    AuthEventType = "USER_UPDATED"
)

// SessionEvent carries the new session, or nil when signed out.
type SessionEvent struct {
	Type    AuthEventType
	Session *Session
}
