// Package onboarding implements the three-step onboarding flow: create an
// organization, pick governance frameworks, and adopt starter processes onto
// the canvas. Each step is an independently retryable write.
package onboarding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/choppr/choppr/internal/canvas"
	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/store"
	"github.com/choppr/choppr/internal/telemetry"
)

var (
	ErrInvalidOrgName    = errors.New("organization name must not be empty")
	ErrInvalidSizeBucket = errors.New("unknown organization size bucket")
	ErrNotMember         = errors.New("user is not a member of the organization")
)

// Service coordinates onboarding writes across the organization, framework
// and canvas stores.
type Service struct {
	orgs       store.OrganizationStore
	frameworks store.FrameworkStore
	canvas     store.CanvasStore
}

// NewService creates an onboarding service.
func NewService(orgs store.OrganizationStore, frameworks store.FrameworkStore, canvasStore store.CanvasStore) *Service {
	return &Service{
		orgs:       orgs,
		frameworks: frameworks,
		canvas:     canvasStore,
	}
}

// OrganizationParams carries the profile fields collected in step one.
// Country, SizeBucket and ITRole are optional; empty strings mean unset.
type OrganizationParams struct {
	Name       string
	Country    string
	SizeBucket string
	ITRole     string
}

// CreateOrganization creates the organization together with the creator's
// admin membership. The two writes commit or fail as one, so a failure can
// never leave an organization the creator cannot access.
func (s *Service) CreateOrganization(ctx context.Context, userID uuid.UUID, params OrganizationParams) (*models.Organization, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrInvalidOrgName
	}
	if !models.ValidSizeBucket(params.SizeBucket) {
		return nil, ErrInvalidSizeBucket
	}

	now := time.Now()
	org := &models.Organization{
		OrgID:       uuid.Must(uuid.NewV7()),
		Name:        name,
		Country:     optional(params.Country),
		SizeBucket:  optional(params.SizeBucket),
		ITRole:      optional(params.ITRole),
		OwnerUserID: userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	member := &models.Membership{
		OrgID:     org.OrgID,
		UserID:    userID,
		Role:      models.RoleAdmin,
		CreatedAt: now,
	}

	if err := s.orgs.CreateWithOwner(ctx, org, member); err != nil {
		return nil, err
	}

	telemetry.GetMetrics().OrganizationsCreated.Add(ctx, 1)
	log.Info().
		Str("org_id", org.OrgID.String()).
		Str("user_id", userID.String()).
		Msg("Organization created")

	return org, nil
}

// ReplaceFrameworks replaces the organization's framework selection with
// frameworkIDs, after verifying the caller is a member. The replacement is
// atomic: concurrent submissions settle on one submitted set, never a merge
// of two.
func (s *Service) ReplaceFrameworks(ctx context.Context, orgID, userID uuid.UUID, frameworkIDs []uuid.UUID) error {
	if err := s.requireMember(ctx, orgID, userID); err != nil {
		return err
	}

	seen := make(map[uuid.UUID]bool, len(frameworkIDs))
	deduped := make([]uuid.UUID, 0, len(frameworkIDs))
	for _, id := range frameworkIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)
	}

	if err := s.frameworks.Replace(ctx, orgID, deduped); err != nil {
		return err
	}

	telemetry.GetMetrics().FrameworksReplaced.Add(ctx, 1)
	log.Info().
		Str("org_id", orgID.String()).
		Int("count", len(deduped)).
		Msg("Framework selection replaced")

	return nil
}

// ListFrameworks returns the full framework catalog.
func (s *Service) ListFrameworks(ctx context.Context) ([]*models.Framework, error) {
	return s.frameworks.List(ctx)
}

// SeedProcesses adopts the selected starter processes onto the organization's
// canvas, laid out one column per value stream. Unknown keys are dropped; an
// empty or all-unknown selection seeds nothing. The insert is all-or-nothing.
func (s *Service) SeedProcesses(ctx context.Context, orgID, userID uuid.UUID, keys []string) ([]*models.CanvasProcess, error) {
	if err := s.requireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}

	placements := canvas.PlaceSelection(keys)
	processes := canvas.Processes(orgID, placements)
	if len(processes) == 0 {
		return nil, nil
	}

	if err := s.canvas.CreateProcesses(ctx, processes); err != nil {
		return nil, err
	}

	telemetry.GetMetrics().ProcessesSeeded.Add(ctx, int64(len(processes)))
	log.Info().
		Str("org_id", orgID.String()).
		Int("count", len(processes)).
		Msg("Starter processes adopted")

	return processes, nil
}

func (s *Service) requireMember(ctx context.Context, orgID, userID uuid.UUID) error {
	ok, err := s.orgs.IsMember(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
