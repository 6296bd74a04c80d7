package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/choppr/choppr/internal/catalog"
	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/store"
)

func newProcess(orgID uuid.UUID, key string) *models.CanvasProcess {
	return &models.CanvasProcess{
		ProcessID:   uuid.Must(uuid.NewV7()),
		OrgID:       orgID,
		Key:         key,
		Name:        key,
		ValueStream: catalog.Strategy2Portfolio,
	}
}

func TestCanvasStoreProcesses(t *testing.T) {
	ctx := context.Background()
	s := NewCanvasStore()
	orgID := uuid.Must(uuid.NewV7())
	otherOrg := uuid.Must(uuid.NewV7())

	p1 := newProcess(orgID, "S2P.01")
	p2 := newProcess(orgID, "R2D.01")
	other := newProcess(otherOrg, "D2C.01")
	require.NoError(t, s.CreateProcesses(ctx, []*models.CanvasProcess{p1, p2, other}))

	t.Run("list is org scoped", func(t *testing.T) {
		procs, err := s.ListProcesses(ctx, orgID)
		require.NoError(t, err)
		require.Len(t, procs, 2)
	})

	t.Run("update position persists exact integers", func(t *testing.T) {
		updated, err := s.UpdateProcessPosition(ctx, orgID, p1.ProcessID, 150, 220)
		require.NoError(t, err)
		require.Equal(t, 150, updated.X)
		require.Equal(t, 220, updated.Y)

		procs, err := s.ListProcesses(ctx, orgID)
		require.NoError(t, err)
		for _, p := range procs {
			if p.ProcessID == p1.ProcessID {
				require.Equal(t, 150, p.X)
				require.Equal(t, 220, p.Y)
			}
		}
	})

	t.Run("update from another org fails", func(t *testing.T) {
		_, err := s.UpdateProcessPosition(ctx, otherOrg, p1.ProcessID, 1, 1)
		require.ErrorIs(t, err, store.ErrProcessNotFound)
	})

	t.Run("update details", func(t *testing.T) {
		updated, err := s.UpdateProcessDetails(ctx, orgID, p2.ProcessID, "R2D.02", "Release", catalog.Requirement2Deploy)
		require.NoError(t, err)
		require.Equal(t, "R2D.02", updated.Key)
		require.Equal(t, "Release", updated.Name)
		require.Equal(t, catalog.Requirement2Deploy, updated.ValueStream)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, s.CreateProcesses(ctx, nil))
	})
}

func TestCanvasStoreRelationships(t *testing.T) {
	ctx := context.Background()
	s := NewCanvasStore()
	orgID := uuid.Must(uuid.NewV7())

	p1 := newProcess(orgID, "S2P.01")
	p2 := newProcess(orgID, "R2D.01")
	require.NoError(t, s.CreateProcesses(ctx, []*models.CanvasProcess{p1, p2}))

	t.Run("create and list", func(t *testing.T) {
		rel := &models.ProcessRelationship{
			RelationshipID: uuid.Must(uuid.NewV7()),
			OrgID:          orgID,
			FromProcess:    p1.ProcessID,
			ToProcess:      p2.ProcessID,
		}
		require.NoError(t, s.CreateRelationship(ctx, rel))

		rels, err := s.ListRelationships(ctx, orgID)
		require.NoError(t, err)
		require.Len(t, rels, 1)
		require.Equal(t, p1.ProcessID, rels[0].FromProcess)
		require.Equal(t, p2.ProcessID, rels[0].ToProcess)
		require.Nil(t, rels[0].Label)
	})

	t.Run("unknown endpoint fails closed", func(t *testing.T) {
		rel := &models.ProcessRelationship{
			RelationshipID: uuid.Must(uuid.NewV7()),
			OrgID:          orgID,
			FromProcess:    p1.ProcessID,
			ToProcess:      uuid.Must(uuid.NewV7()),
		}
		require.ErrorIs(t, s.CreateRelationship(ctx, rel), store.ErrProcessNotFound)

		rels, err := s.ListRelationships(ctx, orgID)
		require.NoError(t, err)
		require.Len(t, rels, 1)
	})
}
