package canvas

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/choppr/choppr/internal/catalog"
	"github.com/choppr/choppr/internal/models"
)

func TestPlaceSelection(t *testing.T) {
	t.Run("column follows value stream order", func(t *testing.T) {
		placements := PlaceSelection([]string{"S2P.01", "R2D.01", "R2F.01", "D2C.01"})
		require.Len(t, placements, 4)
		require.Equal(t, 0, placements[0].X)
		require.Equal(t, 300, placements[1].X)
		require.Equal(t, 600, placements[2].X)
		require.Equal(t, 900, placements[3].X)
		for _, p := range placements {
			require.Equal(t, 0, p.Y)
		}
	})

	t.Run("rows stack within a stream", func(t *testing.T) {
		// R2F.01, DSS01 and DSS02 all belong to Request2Fulfill
		placements := PlaceSelection([]string{"R2F.01", "DSS01", "DSS02"})
		require.Len(t, placements, 3)
		for _, p := range placements {
			require.Equal(t, 2*ColumnWidth, p.X)
		}
		require.Equal(t, 0, placements[0].Y)
		require.Equal(t, 120, placements[1].Y)
		require.Equal(t, 240, placements[2].Y)
	})

	t.Run("row index counts selected processes only", func(t *testing.T) {
		// DSS02 is the third Request2Fulfill process in the catalog, but the
		// only one selected: it gets row 0.
		placements := PlaceSelection([]string{"DSS02"})
		require.Len(t, placements, 1)
		require.Equal(t, 0, placements[0].Y)
	})

	t.Run("unknown keys dropped", func(t *testing.T) {
		placements := PlaceSelection([]string{"NOPE", "S2P.01", "ALSO-NOPE"})
		require.Len(t, placements, 1)
		require.Equal(t, "S2P.01", placements[0].Process.Key)
	})

	t.Run("duplicate keys collapse", func(t *testing.T) {
		placements := PlaceSelection([]string{"S2P.01", "S2P.01"})
		require.Len(t, placements, 1)
	})

	t.Run("no two placements overlap", func(t *testing.T) {
		var keys []string
		for _, p := range catalog.Processes() {
			keys = append(keys, p.Key)
		}
		placements := PlaceSelection(keys)
		require.Len(t, placements, len(keys))

		positions := make(map[string]bool)
		for _, p := range placements {
			pos := fmt.Sprintf("%d,%d", p.X, p.Y)
			require.False(t, positions[pos], "position %s assigned twice", pos)
			positions[pos] = true
		}
	})
}

func TestNodes(t *testing.T) {
	id := uuid.Must(uuid.NewV7())
	orgID := uuid.Must(uuid.NewV7())
	nodes := Nodes([]*models.CanvasProcess{{
		ProcessID:   id,
		OrgID:       orgID,
		Key:         "APO13",
		Name:        "Manage Security",
		ValueStream: catalog.Detect2Correct,
		X:           900,
		Y:           120,
	}})

	require.Len(t, nodes, 1)
	require.Equal(t, id.String(), nodes[0].ID)
	require.Equal(t, "processNode", nodes[0].Type)
	require.Equal(t, Position{X: 900, Y: 120}, nodes[0].Position)
	require.Equal(t, "APO13", nodes[0].Data.Key)
	require.Equal(t, "#ef4444", nodes[0].Data.Color)
}

func TestEdges(t *testing.T) {
	from := uuid.Must(uuid.NewV7())
	to := uuid.Must(uuid.NewV7())
	relID := uuid.Must(uuid.NewV7())
	label := "feeds"

	edges := Edges([]*models.ProcessRelationship{
		{RelationshipID: relID, FromProcess: from, ToProcess: to, Label: &label},
		{RelationshipID: uuid.Must(uuid.NewV7()), FromProcess: to, ToProcess: from},
	})

	require.Len(t, edges, 2)
	require.Equal(t, relID.String(), edges[0].ID)
	require.Equal(t, from.String(), edges[0].Source)
	require.Equal(t, to.String(), edges[0].Target)
	require.Equal(t, "feeds", edges[0].Label)
	require.Equal(t, "smoothstep", edges[0].Type)

	// nil label renders as no caption
	require.Empty(t, edges[1].Label)
}

func TestColorForValueStream(t *testing.T) {
	require.Equal(t, "#3b82f6", ColorForValueStream(catalog.Strategy2Portfolio))
	require.Equal(t, "#10b981", ColorForValueStream(catalog.Requirement2Deploy))
	require.Equal(t, "#f59e0b", ColorForValueStream(catalog.Request2Fulfill))
	require.Equal(t, "#ef4444", ColorForValueStream(catalog.Detect2Correct))

	// stable across calls
	require.Equal(t, ColorForValueStream(catalog.Detect2Correct), ColorForValueStream(catalog.Detect2Correct))

	// unrecognized streams always get the fallback
	require.Equal(t, FallbackColor, ColorForValueStream("Unknown2Stream"))
	require.Equal(t, FallbackColor, ColorForValueStream(""))
}

func TestProcessesAssignsIDs(t *testing.T) {
	orgID := uuid.Must(uuid.NewV7())
	rows := Processes(orgID, PlaceSelection([]string{"S2P.01", "BAI09"}))

	require.Len(t, rows, 2)
	seen := make(map[uuid.UUID]bool)
	for _, row := range rows {
		require.NotEqual(t, uuid.Nil, row.ProcessID)
		require.False(t, seen[row.ProcessID])
		seen[row.ProcessID] = true
		require.Equal(t, orgID, row.OrgID)
	}
	require.Equal(t, 0, rows[0].X)
	require.Equal(t, ColumnWidth, rows[1].X)
}
