package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/choppr/choppr/internal/models"
)

// FrameworkStore implements store.FrameworkStore using PostgreSQL.
type FrameworkStore struct {
	pool *pgxpool.Pool
}

// NewFrameworkStore creates a new PostgreSQL-backed framework store.
func NewFrameworkStore(pool *pgxpool.Pool) *FrameworkStore {
	return &FrameworkStore{
		pool: pool,
	}
}

// List returns all frameworks ordered by label.
func (s *FrameworkStore) List(ctx context.Context) ([]*models.Framework, error) {
	query := `
		SELECT framework_id, code, label
		FROM frameworks
		ORDER BY label
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list frameworks: %w", err)
	}
	defer rows.Close()

	var frameworks []*models.Framework
	for rows.Next() {
		var f models.Framework
		if err := rows.Scan(&f.FrameworkID, &f.Code, &f.Label); err != nil {
			return nil, fmt.Errorf("failed to scan framework: %w", err)
		}
		frameworks = append(frameworks, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating frameworks: %w", err)
	}

	return frameworks, nil
}

// Replace replaces the organization's framework associations in a single
// transaction: a failure between the delete and the inserts rolls everything
// back, so the association set is never left half-replaced. Afterwards the
// set equals frameworkIDs exactly.
func (s *FrameworkStore) Replace(ctx context.Context, orgID uuid.UUID, frameworkIDs []uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if _, err := tx.Exec(ctx, `DELETE FROM org_frameworks WHERE org_id = $1`, orgID); err != nil {
		return fmt.Errorf("failed to clear framework associations: %w", err)
	}

	// ON CONFLICT collapses duplicate IDs in the input
	insert := `
		INSERT INTO org_frameworks (org_id, framework_id)
		VALUES ($1, $2)
		ON CONFLICT (org_id, framework_id) DO NOTHING
	`
	for _, frameworkID := range frameworkIDs {
		if _, err := tx.Exec(ctx, insert, orgID, frameworkID); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("unknown framework %s: %w", frameworkID, err)
			}
			return fmt.Errorf("failed to link framework: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit framework replace: %w", err)
	}

	log.Debug().
		Str("org_id", orgID.String()).
		Int("count", len(frameworkIDs)).
		Msg("Replaced framework associations")

	return nil
}

// ListForOrg returns the framework IDs associated with the organization.
func (s *FrameworkStore) ListForOrg(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT framework_id
		FROM org_frameworks
		WHERE org_id = $1
		ORDER BY framework_id
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list org frameworks: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan framework id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating org frameworks: %w", err)
	}

	return ids, nil
}
