package models

import "time"

// RefreshToken is an opaque, single-use token that can be exchanged for a
// new token pair until it expires.
type RefreshToken struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
