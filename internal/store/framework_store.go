package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/choppr/choppr/internal/models"
)

// FrameworkStore defines the interface for the framework catalog and the
// per-organization framework associations.
type FrameworkStore interface {
	// List returns all frameworks ordered by label. The catalog is reference
	// data; this service never writes to it.
	List(ctx context.Context) ([]*models.Framework, error)

	// Replace atomically replaces the organization's framework associations so
	// that afterwards the set equals frameworkIDs exactly. Duplicates in the
	// input collapse; order is irrelevant. An empty set clears all associations
	// without inserting anything.
	Replace(ctx context.Context, orgID uuid.UUID, frameworkIDs []uuid.UUID) error

	// ListForOrg returns the framework IDs currently associated with the organization.
	ListForOrg(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error)
}
