package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a person who can sign in to Choppr.
// Users authenticate with a password or a magic link; magic-link users
// may have no password hash until they set one.
type User struct {
	UserID       uuid.UUID // UUIDv7
	Email        string    // Unique, lowercased
	Name         string    // Display name, may be empty
	PasswordHash []byte    // bcrypt hash, nil for magic-link-only users

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// HasPassword returns true if the user has set a password.
func (u *User) HasPassword() bool {
	return len(u.PasswordHash) > 0
}
