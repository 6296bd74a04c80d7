package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/choppr/choppr/internal/models"
)

// FrameworkStore is an in-memory implementation of store.FrameworkStore.
// The framework catalog is seeded at construction to mirror the rows the
// Postgres migration seeds.
type FrameworkStore struct {
	mu         sync.RWMutex
	frameworks []*models.Framework
	orgLinks   map[uuid.UUID]map[uuid.UUID]bool // orgID -> set of framework IDs
}

// NewFrameworkStore creates a new in-memory framework store with the default catalog.
func NewFrameworkStore() *FrameworkStore {
	s := &FrameworkStore{
		orgLinks: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
	for _, f := range []struct{ code, label string }{
		{"ITIL4", "ITIL 4"},
		{"COBIT", "COBIT 2019"},
		{"ISO27001", "ISO/IEC 27001"},
		{"NIST_CSF", "NIST Cybersecurity Framework"},
		{"TOGAF", "TOGAF"},
	} {
		s.frameworks = append(s.frameworks, &models.Framework{
			FrameworkID: uuid.Must(uuid.NewV7()),
			Code:        f.code,
			Label:       f.label,
		})
	}
	return s
}

func (s *FrameworkStore) List(ctx context.Context) ([]*models.Framework, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Framework, 0, len(s.frameworks))
	for _, f := range s.frameworks {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *FrameworkStore) Replace(ctx context.Context, orgID uuid.UUID, frameworkIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	links := make(map[uuid.UUID]bool, len(frameworkIDs))
	for _, id := range frameworkIDs {
		links[id] = true
	}
	s.orgLinks[orgID] = links
	return nil
}

func (s *FrameworkStore) ListForOrg(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []uuid.UUID
	for id := range s.orgLinks[orgID] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
