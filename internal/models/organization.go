package models

import (
	"time"

	"github.com/google/uuid"
)

// Size buckets an organization can declare during onboarding.
const (
	SizeBucketSmall  = "<50"
	SizeBucketMedium = "50-250"
	SizeBucketLarge  = "250-1000"
	SizeBucketXLarge = "1000+"
)

// ValidSizeBucket reports whether s is one of the known size buckets.
// The empty string is valid: the field is optional.
func ValidSizeBucket(s string) bool {
	switch s {
	case "", SizeBucketSmall, SizeBucketMedium, SizeBucketLarge, SizeBucketXLarge:
		return true
	}
	return false
}

// Organization represents a tenant created during onboarding.
// Country, SizeBucket and ITRole are optional profile fields; nil means unset.
type Organization struct {
	OrgID       uuid.UUID // UUIDv7
	Name        string
	Country     *string
	SizeBucket  *string // one of the SizeBucket* constants
	ITRole      *string // free text, e.g. "Utility", "Differentiator"
	OwnerUserID uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
