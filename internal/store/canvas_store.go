package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/choppr/choppr/internal/models"
)

// Sentinel errors for canvas store operations
var (
	ErrProcessNotFound      = errors.New("canvas process not found")
	ErrRelationshipNotFound = errors.New("process relationship not found")
)

// CanvasStore defines the interface for canvas process and relationship
// storage. All lookups and mutations are organization-scoped: a process ID
// from another organization behaves as if it doesn't exist.
type CanvasStore interface {
	// CreateProcesses bulk-inserts canvas processes in a single atomic
	// operation. Inserting an empty batch is a no-op.
	CreateProcesses(ctx context.Context, processes []*models.CanvasProcess) error

	// ListProcesses returns all canvas processes for the organization.
	ListProcesses(ctx context.Context, orgID uuid.UUID) ([]*models.CanvasProcess, error)

	// UpdateProcessPosition persists new canvas coordinates for a process.
	// Returns ErrProcessNotFound if the process doesn't exist in the organization.
	UpdateProcessPosition(ctx context.Context, orgID, processID uuid.UUID, x, y int) (*models.CanvasProcess, error)

	// UpdateProcessDetails persists new key/name/value-stream for a process.
	// Returns ErrProcessNotFound if the process doesn't exist in the organization.
	UpdateProcessDetails(ctx context.Context, orgID, processID uuid.UUID, key, name, valueStream string) (*models.CanvasProcess, error)

	// CreateRelationship inserts a directed relationship between two processes
	// of the organization. Returns ErrProcessNotFound if either endpoint
	// doesn't exist in the organization.
	CreateRelationship(ctx context.Context, rel *models.ProcessRelationship) error

	// ListRelationships returns all process relationships for the organization.
	ListRelationships(ctx context.Context, orgID uuid.UUID) ([]*models.ProcessRelationship, error)
}
