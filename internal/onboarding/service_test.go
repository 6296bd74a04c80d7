package onboarding

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/store/memory"
)

type fixture struct {
	service    *Service
	orgs       *memory.OrganizationStore
	frameworks *memory.FrameworkStore
	canvas     *memory.CanvasStore
}

func newFixture() *fixture {
	orgs := memory.NewOrganizationStore()
	frameworks := memory.NewFrameworkStore()
	canvasStore := memory.NewCanvasStore()
	return &fixture{
		service:    NewService(orgs, frameworks, canvasStore),
		orgs:       orgs,
		frameworks: frameworks,
		canvas:     canvasStore,
	}
}

func TestCreateOrganization(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.Must(uuid.NewV7())

	org, err := f.service.CreateOrganization(ctx, userID, OrganizationParams{
		Name:       "  Acme Corp  ",
		Country:    "NL",
		SizeBucket: models.SizeBucketMedium,
		ITRole:     "Differentiator",
	})
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", org.Name)
	require.Equal(t, userID, org.OwnerUserID)
	require.NotNil(t, org.SizeBucket)
	require.Equal(t, models.SizeBucketMedium, *org.SizeBucket)

	// the creator is immediately an admin member
	member, err := f.orgs.MembershipForUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, org.OrgID, member.OrgID)
	require.Equal(t, models.RoleAdmin, member.Role)
}

func TestCreateOrganizationValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.Must(uuid.NewV7())

	_, err := f.service.CreateOrganization(ctx, userID, OrganizationParams{Name: "   "})
	require.ErrorIs(t, err, ErrInvalidOrgName)

	_, err = f.service.CreateOrganization(ctx, userID, OrganizationParams{
		Name:       "Acme",
		SizeBucket: "enormous",
	})
	require.ErrorIs(t, err, ErrInvalidSizeBucket)
}

func TestCreateOrganizationOptionalFieldsUnset(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	org, err := f.service.CreateOrganization(ctx, uuid.Must(uuid.NewV7()), OrganizationParams{Name: "Acme"})
	require.NoError(t, err)
	require.Nil(t, org.Country)
	require.Nil(t, org.SizeBucket)
	require.Nil(t, org.ITRole)
}

func TestReplaceFrameworks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.Must(uuid.NewV7())

	org, err := f.service.CreateOrganization(ctx, userID, OrganizationParams{Name: "Acme"})
	require.NoError(t, err)

	catalog, err := f.service.ListFrameworks(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 5)

	// duplicates in the submission collapse to one association
	ids := []uuid.UUID{catalog[0].FrameworkID, catalog[1].FrameworkID, catalog[0].FrameworkID}
	require.NoError(t, f.service.ReplaceFrameworks(ctx, org.OrgID, userID, ids))

	linked, err := f.frameworks.ListForOrg(ctx, org.OrgID)
	require.NoError(t, err)
	require.Len(t, linked, 2)

	// a later submission replaces, never merges
	require.NoError(t, f.service.ReplaceFrameworks(ctx, org.OrgID, userID, []uuid.UUID{catalog[2].FrameworkID}))
	linked, err = f.frameworks.ListForOrg(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{catalog[2].FrameworkID}, linked)
}

func TestReplaceFrameworksRequiresMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	org, err := f.service.CreateOrganization(ctx, uuid.Must(uuid.NewV7()), OrganizationParams{Name: "Acme"})
	require.NoError(t, err)

	outsider := uuid.Must(uuid.NewV7())
	err = f.service.ReplaceFrameworks(ctx, org.OrgID, outsider, nil)
	require.ErrorIs(t, err, ErrNotMember)
}

func TestSeedProcesses(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.Must(uuid.NewV7())

	org, err := f.service.CreateOrganization(ctx, userID, OrganizationParams{Name: "Acme"})
	require.NoError(t, err)

	seeded, err := f.service.SeedProcesses(ctx, org.OrgID, userID, []string{"S2P.01", "DSS01", "DSS02", "nope"})
	require.NoError(t, err)
	require.Len(t, seeded, 3)

	stored, err := f.canvas.ListProcesses(ctx, org.OrgID)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	byKey := make(map[string]*models.CanvasProcess, len(stored))
	for _, p := range stored {
		byKey[p.Key] = p
	}
	require.Equal(t, 0, byKey["S2P.01"].X)
	require.Equal(t, 600, byKey["DSS01"].X)
	require.Equal(t, 0, byKey["DSS01"].Y)
	require.Equal(t, 120, byKey["DSS02"].Y)
}

func TestSeedProcessesEmptySelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.Must(uuid.NewV7())

	org, err := f.service.CreateOrganization(ctx, userID, OrganizationParams{Name: "Acme"})
	require.NoError(t, err)

	seeded, err := f.service.SeedProcesses(ctx, org.OrgID, userID, nil)
	require.NoError(t, err)
	require.Empty(t, seeded)

	seeded, err = f.service.SeedProcesses(ctx, org.OrgID, userID, []string{"not-a-key"})
	require.NoError(t, err)
	require.Empty(t, seeded)

	stored, err := f.canvas.ListProcesses(ctx, org.OrgID)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestSeedProcessesRequiresMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	org, err := f.service.CreateOrganization(ctx, uuid.Must(uuid.NewV7()), OrganizationParams{Name: "Acme"})
	require.NoError(t, err)

	_, err = f.service.SeedProcesses(ctx, org.OrgID, uuid.Must(uuid.NewV7()), []string{"S2P.01"})
	require.ErrorIs(t, err, ErrNotMember)
}
