package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/store"
)

// CanvasStore implements store.CanvasStore using PostgreSQL.
type CanvasStore struct {
	pool *pgxpool.Pool
}

// NewCanvasStore creates a new PostgreSQL-backed canvas store.
func NewCanvasStore(pool *pgxpool.Pool) *CanvasStore {
	return &CanvasStore{
		pool: pool,
	}
}

// CreateProcesses bulk-inserts canvas processes in one transaction.
func (s *CanvasStore) CreateProcesses(ctx context.Context, processes []*models.CanvasProcess) error {
	if len(processes) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	query := `
		INSERT INTO canvas_processes (
			process_id, org_id, key, name, value_stream, x, y, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	now := time.Now()
	for _, p := range processes {
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		_, err := tx.Exec(ctx, query,
			p.ProcessID,
			p.OrgID,
			p.Key,
			p.Name,
			p.ValueStream,
			p.X,
			p.Y,
			createdAt,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert canvas process %s: %w", p.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit process insert: %w", err)
	}

	log.Debug().
		Str("org_id", processes[0].OrgID.String()).
		Int("count", len(processes)).
		Msg("Created canvas processes")

	return nil
}

const processColumns = `process_id, org_id, key, name, value_stream, x, y, created_at, updated_at`

// ListProcesses returns all canvas processes for the organization.
func (s *CanvasStore) ListProcesses(ctx context.Context, orgID uuid.UUID) ([]*models.CanvasProcess, error) {
	query := `
		SELECT ` + processColumns + `
		FROM canvas_processes
		WHERE org_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list canvas processes: %w", err)
	}
	defer rows.Close()

	var processes []*models.CanvasProcess
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		processes = append(processes, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating canvas processes: %w", err)
	}

	return processes, nil
}

// UpdateProcessPosition persists new canvas coordinates for a process.
// The update is org-scoped; a process from another organization is not found.
func (s *CanvasStore) UpdateProcessPosition(ctx context.Context, orgID, processID uuid.UUID, x, y int) (*models.CanvasProcess, error) {
	query := `
		UPDATE canvas_processes
		SET x = $3, y = $4, updated_at = $5
		WHERE process_id = $1 AND org_id = $2
		RETURNING ` + processColumns

	p, err := scanProcess(s.pool.QueryRow(ctx, query, processID, orgID, x, y, time.Now()))
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("process_id", processID.String()).
		Int("x", x).
		Int("y", y).
		Msg("Updated process position")

	return p, nil
}

// UpdateProcessDetails persists new key/name/value-stream for a process.
func (s *CanvasStore) UpdateProcessDetails(ctx context.Context, orgID, processID uuid.UUID, key, name, valueStream string) (*models.CanvasProcess, error) {
	query := `
		UPDATE canvas_processes
		SET key = $3, name = $4, value_stream = $5, updated_at = $6
		WHERE process_id = $1 AND org_id = $2
		RETURNING ` + processColumns

	p, err := scanProcess(s.pool.QueryRow(ctx, query, processID, orgID, key, name, valueStream, time.Now()))
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("process_id", processID.String()).
		Str("key", key).
		Msg("Updated process details")

	return p, nil
}

// CreateRelationship inserts a directed relationship between two processes.
// Endpoints are verified to belong to the relationship's organization.
func (s *CanvasStore) CreateRelationship(ctx context.Context, rel *models.ProcessRelationship) error {
	// The subselects scope both endpoints to the org; inserting nothing means
	// at least one endpoint was missing or foreign.
	query := `
		INSERT INTO process_relationships (
			relationship_id, org_id, from_process, to_process, label, created_at
		)
		SELECT $1, $2, f.process_id, t.process_id, $5, $6
		FROM canvas_processes f, canvas_processes t
		WHERE f.process_id = $3 AND f.org_id = $2
		  AND t.process_id = $4 AND t.org_id = $2
	`

	createdAt := rel.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := s.pool.Exec(ctx, query,
		rel.RelationshipID,
		rel.OrgID,
		rel.FromProcess,
		rel.ToProcess,
		rel.Label,
		createdAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrProcessNotFound
		}
		return fmt.Errorf("failed to create relationship: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrProcessNotFound
	}

	log.Debug().
		Str("relationship_id", rel.RelationshipID.String()).
		Str("from", rel.FromProcess.String()).
		Str("to", rel.ToProcess.String()).
		Msg("Created process relationship")

	return nil
}

// ListRelationships returns all process relationships for the organization.
func (s *CanvasStore) ListRelationships(ctx context.Context, orgID uuid.UUID) ([]*models.ProcessRelationship, error) {
	query := `
		SELECT relationship_id, org_id, from_process, to_process, label, created_at
		FROM process_relationships
		WHERE org_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	var relationships []*models.ProcessRelationship
	for rows.Next() {
		var r models.ProcessRelationship
		err := rows.Scan(
			&r.RelationshipID,
			&r.OrgID,
			&r.FromProcess,
			&r.ToProcess,
			&r.Label,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		relationships = append(relationships, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating relationships: %w", err)
	}

	return relationships, nil
}

func scanProcess(row pgx.Row) (*models.CanvasProcess, error) {
	var p models.CanvasProcess
	err := row.Scan(
		&p.ProcessID,
		&p.OrgID,
		&p.Key,
		&p.Name,
		&p.ValueStream,
		&p.X,
		&p.Y,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrProcessNotFound
		}
		return nil, fmt.Errorf("failed to scan canvas process: %w", err)
	}

	return &p, nil
}
