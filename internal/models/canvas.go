package models

import (
	"time"

	"github.com/google/uuid"
)

// CanvasProcess is a process an organization has adopted onto its operating
// model canvas. X/Y are canvas coordinates in pixels, always whole numbers.
type CanvasProcess struct {
	ProcessID   uuid.UUID // UUIDv7
	OrgID       uuid.UUID
	Key         string // stable short code, e.g. "S2P.01" or "DSS02"
	Name        string
	ValueStream string // one of the catalog value streams
	X           int
	Y           int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProcessRelationship is a directed edge between two canvas processes.
// Label is optional; nil renders as an edge with no caption.
type ProcessRelationship struct {
	RelationshipID uuid.UUID // UUIDv7
	OrgID          uuid.UUID
	FromProcess    uuid.UUID
	ToProcess      uuid.UUID
	Label          *string
	CreatedAt      time.Time
}
