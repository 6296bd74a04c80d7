package models

import "github.com/google/uuid"

// Framework is a governance/compliance standard an organization can opt into
// (e.g. ITIL 4, COBIT). Rows are reference data seeded by migration and are
// read-only as far as this service is concerned.
type Framework struct {
	FrameworkID uuid.UUID
	Code        string // stable short code, unique
	Label       string // display label
}
