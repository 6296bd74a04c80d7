package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/store"
)

type memberKey struct {
	orgID  uuid.UUID
	userID uuid.UUID
}

// OrganizationStore is an in-memory implementation of store.OrganizationStore.
type OrganizationStore struct {
	mu      sync.RWMutex
	orgs    map[uuid.UUID]*models.Organization
	members map[memberKey]*models.Membership
}

// NewOrganizationStore creates a new in-memory organization store.
func NewOrganizationStore() *OrganizationStore {
	return &OrganizationStore{
		orgs:    make(map[uuid.UUID]*models.Organization),
		members: make(map[memberKey]*models.Membership),
	}
}

func (s *OrganizationStore) CreateWithOwner(ctx context.Context, org *models.Organization, member *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orgCopy := copyOrganization(org)
	s.orgs[org.OrgID] = orgCopy

	// upsert membership so re-running onboarding is idempotent
	memberCopy := *member
	s.members[memberKey{orgID: member.OrgID, userID: member.UserID}] = &memberCopy
	return nil
}

func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.orgs[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}
	return copyOrganization(org), nil
}

func (s *OrganizationStore) MembershipForUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []*models.Membership
	for key, m := range s.members {
		if key.userID == userID {
			found = append(found, m)
		}
	}
	if len(found) == 0 {
		return nil, store.ErrMembershipNotFound
	}

	// earliest membership wins when a user belongs to several orgs
	sort.Slice(found, func(i, j int) bool {
		return found[i].CreatedAt.Before(found[j].CreatedAt)
	})
	cp := *found[0]
	return &cp, nil
}

func (s *OrganizationStore) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.members[memberKey{orgID: orgID, userID: userID}]
	return exists, nil
}

func copyOrganization(org *models.Organization) *models.Organization {
	cp := *org
	cp.Country = copyString(org.Country)
	cp.SizeBucket = copyString(org.SizeBucket)
	cp.ITRole = copyString(org.ITRole)
	return &cp
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
