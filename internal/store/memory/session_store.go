package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/store"
)

// SessionStore is an in-memory implementation of store.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*models.Session),
	}
}

func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *session
	s.sessions[session.SessionID] = &cp
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, store.ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, store.ErrSessionExpired
	}
	cp := *session
	return &cp, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return store.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}
