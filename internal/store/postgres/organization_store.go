package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/store"
)

// OrganizationStore implements store.OrganizationStore using PostgreSQL.
type OrganizationStore struct {
	pool *pgxpool.Pool
}

// NewOrganizationStore creates a new PostgreSQL-backed organization store.
// It shares the connection pool with other stores.
func NewOrganizationStore(pool *pgxpool.Pool) *OrganizationStore {
	return &OrganizationStore{
		pool: pool,
	}
}

// CreateWithOwner creates the organization and the owner's membership in a
// single transaction. A membership failure rolls the organization back, so an
// orphaned organization can never persist. The membership insert is an upsert
// keyed on (org_id, user_id) so re-running onboarding is idempotent.
func (s *OrganizationStore) CreateWithOwner(ctx context.Context, org *models.Organization, member *models.Membership) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	orgQuery := `
		INSERT INTO orgs (
			org_id, name, country, size_bucket, it_role, owner_user_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err = tx.Exec(ctx, orgQuery,
		org.OrgID,
		org.Name,
		org.Country,
		org.SizeBucket,
		org.ITRole,
		org.OwnerUserID,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("organization violates a constraint: %w", err)
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	memberQuery := `
		INSERT INTO org_members (org_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`

	_, err = tx.Exec(ctx, memberQuery,
		member.OrgID,
		member.UserID,
		member.Role,
		member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit organization create: %w", err)
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Str("name", org.Name).
		Str("owner", org.OwnerUserID.String()).
		Msg("Created organization with owner membership")

	return nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	query := `
		SELECT org_id, name, country, size_bucket, it_role, owner_user_id, created_at, updated_at
		FROM orgs
		WHERE org_id = $1
	`

	var org models.Organization
	err := s.pool.QueryRow(ctx, query, orgID).Scan(
		&org.OrgID,
		&org.Name,
		&org.Country,
		&org.SizeBucket,
		&org.ITRole,
		&org.OwnerUserID,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return &org, nil
}

// MembershipForUser returns the user's earliest-created membership.
func (s *OrganizationStore) MembershipForUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT org_id, user_id, role, created_at
		FROM org_members
		WHERE user_id = $1
		ORDER BY created_at ASC
		LIMIT 1
	`

	var member models.Membership
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&member.OrgID,
		&member.UserID,
		&member.Role,
		&member.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &member, nil
}

// IsMember reports whether the user has a membership in the organization.
func (s *OrganizationStore) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM org_members WHERE org_id = $1 AND user_id = $2
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, orgID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}
