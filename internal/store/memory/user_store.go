// Package memory provides in-memory store implementations for development
// and testing. Data is lost on restart.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/store"
)

// UserStore is an in-memory implementation of store.UserStore.
type UserStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return store.ErrUserAlreadyExists
	}
	if _, exists := s.users[user.UserID]; exists {
		return store.ErrUserAlreadyExists
	}

	cp := copyUser(user)
	s.users[user.UserID] = cp
	s.byEmail[email] = user.UserID
	return nil
}

func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, store.ErrUserNotFound
	}
	return copyUser(user), nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[strings.ToLower(email)]
	if !exists {
		return nil, store.ErrUserNotFound
	}
	return copyUser(s.users[id]), nil
}

func (s *UserStore) RecordLogin(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return store.ErrUserNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	return nil
}

// copyUser returns a deep copy to avoid external modifications.
func copyUser(u *models.User) *models.User {
	cp := *u
	if u.PasswordHash != nil {
		cp.PasswordHash = append([]byte(nil), u.PasswordHash...)
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}
