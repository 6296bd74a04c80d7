package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership roles.
const (
	RoleAdmin = "ADMIN"
)

// Membership links a user to an organization with a role.
// The onboarding flow always creates the owner's membership with RoleAdmin.
type Membership struct {
	OrgID     uuid.UUID
	UserID    uuid.UUID
	Role      string
	CreatedAt time.Time
}
