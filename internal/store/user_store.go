package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/choppr/choppr/internal/models"
)

// Sentinel errors for user store operations
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserStore defines the interface for user storage operations.
type UserStore interface {
	// Create creates a new user.
	// Returns ErrUserAlreadyExists if a user with the same email already exists.
	Create(ctx context.Context, user *models.User) error

	// Get retrieves a user by ID.
	// Returns ErrUserNotFound if the user doesn't exist.
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrUserNotFound if the user doesn't exist.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// RecordLogin updates the user's last_login_at timestamp.
	RecordLogin(ctx context.Context, userID uuid.UUID) error
}
