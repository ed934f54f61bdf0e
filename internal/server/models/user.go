// Package models defines server-side records persisted by the data service.
package models

import "time"

// User is an account. PasswordHash is a bcrypt hash; ConfirmedAt is nil
// until the email address is confirmed.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
}

// Confirmed reports whether the user may sign in.
func (u *User) Confirmed() bool {
	return u.ConfirmedAt != nil
}
