package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/choppr/choppr/internal/models"
)

// Sentinel errors for organization store operations
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrMembershipNotFound   = errors.New("membership not found")
)

// OrganizationStore defines the interface for organization and membership
// storage. Organizations are tenants; memberships link users to them.
type OrganizationStore interface {
	// CreateWithOwner creates the organization and the owner's membership as a
	// single atomic operation, so a failure can never leave an organization
	// without an owning membership. The membership is upserted: re-running the
	// step for the same (org, user) pair is idempotent.
	CreateWithOwner(ctx context.Context, org *models.Organization, member *models.Membership) error

	// Get retrieves an organization by ID.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)

	// MembershipForUser returns the user's membership, or ErrMembershipNotFound
	// if the user belongs to no organization. When a user belongs to several,
	// the earliest-created one wins.
	MembershipForUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error)

	// IsMember reports whether the user has a membership in the organization.
	IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
}
