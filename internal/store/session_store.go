package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/choppr/choppr/internal/models"
)

// Sentinel errors for session store operations
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// SessionStore defines the interface for server-side session storage.
// The browser holds only the opaque session ID in a cookie.
type SessionStore interface {
	// Create creates a new session.
	Create(ctx context.Context, session *models.Session) error

	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if it doesn't exist, ErrSessionExpired if it
	// exists but has passed its expiry.
	Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)

	// Delete deletes a session by ID (logout).
	// Returns ErrSessionNotFound if the session doesn't exist.
	Delete(ctx context.Context, sessionID uuid.UUID) error

	// DeleteExpired deletes all expired sessions and returns how many were removed.
	DeleteExpired(ctx context.Context) (int, error)
}
