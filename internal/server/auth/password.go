package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/factfeed/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password signup accepts.
const MinPasswordLength = 6

// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
var ErrWeakPassword = fmt.Errorf("%w: password should be at least %d characters", common.ErrorValidation, MinPasswordLength)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether password matches hash. A mismatch is
// common.ErrorUnauthorized; a malformed hash is returned as is.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return common.ErrorUnauthorized
	}
	return err
}
