package services

import (
	"errors"
	"fmt"
)

// Messages shown to the user as blocking alerts.
const (
	AlertFetchFailed  = "There was a problem getting data"
	AlertDeleteFailed = "Failed to delete the fact"

	SignupConfirmationMessage = "Check your email for confirmation link (if signing up)."
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrFactBusy         = errors.New("fact is being updated")
	ErrFactNotCached    = errors.New("fact is not in the current list")
)

// AuthError is a failed login or signup. Message is the provider's text and
// is meant to be shown to the user as is.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// FetchError is a failed list fetch. The cached list is left as it was.
type FetchError struct {
	Category string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch facts (category %s): %v", e.Category, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type MutationOp string

const (
	OpInsert MutationOp = "insert"
	OpVote   MutationOp = "vote"
	OpDelete MutationOp = "delete"
)

// MutationError is a remote failure of insert, vote or delete.
type MutationError struct {
	Op     MutationOp
	FactID int64
	Err    error
}

func (e *MutationError) Error() string {
	if e.Op == OpInsert {
		return fmt.Sprintf("insert fact: %v", e.Err)
	}
	return fmt.Sprintf("%s fact %d: %v", e.Op, e.FactID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
