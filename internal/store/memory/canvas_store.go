package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/store"
)

// CanvasStore is an in-memory implementation of store.CanvasStore.
type CanvasStore struct {
	mu            sync.RWMutex
	processes     map[uuid.UUID]*models.CanvasProcess
	relationships map[uuid.UUID]*models.ProcessRelationship
}

// NewCanvasStore creates a new in-memory canvas store.
func NewCanvasStore() *CanvasStore {
	return &CanvasStore{
		processes:     make(map[uuid.UUID]*models.CanvasProcess),
		relationships: make(map[uuid.UUID]*models.ProcessRelationship),
	}
}

func (s *CanvasStore) CreateProcesses(ctx context.Context, processes []*models.CanvasProcess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, p := range processes {
		cp := *p
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = now
		}
		cp.UpdatedAt = now
		s.processes[p.ProcessID] = &cp
	}
	return nil
}

func (s *CanvasStore) ListProcesses(ctx context.Context, orgID uuid.UUID) ([]*models.CanvasProcess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.CanvasProcess
	for _, p := range s.processes {
		if p.OrgID == orgID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *CanvasStore) UpdateProcessPosition(ctx context.Context, orgID, processID uuid.UUID, x, y int) (*models.CanvasProcess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.processes[processID]
	if !exists || p.OrgID != orgID {
		return nil, store.ErrProcessNotFound
	}
	p.X = x
	p.Y = y
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (s *CanvasStore) UpdateProcessDetails(ctx context.Context, orgID, processID uuid.UUID, key, name, valueStream string) (*models.CanvasProcess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.processes[processID]
	if !exists || p.OrgID != orgID {
		return nil, store.ErrProcessNotFound
	}
	p.Key = key
	p.Name = name
	p.ValueStream = valueStream
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (s *CanvasStore) CreateRelationship(ctx context.Context, rel *models.ProcessRelationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, exists := s.processes[rel.FromProcess]
	if !exists || from.OrgID != rel.OrgID {
		return store.ErrProcessNotFound
	}
	to, exists := s.processes[rel.ToProcess]
	if !exists || to.OrgID != rel.OrgID {
		return store.ErrProcessNotFound
	}

	cp := *rel
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	if rel.Label != nil {
		v := *rel.Label
		cp.Label = &v
	}
	s.relationships[rel.RelationshipID] = &cp
	return nil
}

func (s *CanvasStore) ListRelationships(ctx context.Context, orgID uuid.UUID) ([]*models.ProcessRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ProcessRelationship
	for _, r := range s.relationships {
		if r.OrgID == orgID {
			cp := *r
			if r.Label != nil {
				v := *r.Label
				cp.Label = &v
			}
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
