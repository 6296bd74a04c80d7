// Package auth implements the credential primitives behind the login
// handlers: bcrypt password hashing and signed magic-link tokens.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced at sign-up and password change.
const MinPasswordLength = 8

var (
	ErrPasswordTooShort   = errors.New("password too short")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// HashPassword hashes a password with bcrypt at the default cost.
func HashPassword(password string) ([]byte, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// VerifyPassword checks a password against a stored bcrypt hash.
// Returns ErrInvalidCredentials on mismatch or when no hash is set, so
// callers surface the same error for both cases.
func VerifyPassword(hash []byte, password string) error {
	if len(hash) == 0 {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
