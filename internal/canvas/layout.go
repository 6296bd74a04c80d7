// Package canvas contains the pure mapping layer between persisted canvas
// rows and the graph model the editor renders: initial placement of newly
// adopted processes, node/edge materialization, and value-stream colors.
package canvas

import (
	"github.com/google/uuid"

	"github.com/choppr/choppr/internal/catalog"
	"github.com/choppr/choppr/internal/models"
)

// Spacing of the initial grid: one column per value stream, stacked rows
// within a column.
const (
	ColumnWidth = 300
	RowHeight   = 120
)

// Placement is a starter process resolved to its initial canvas position.
type Placement struct {
	Process catalog.StarterProcess
	X       int
	Y       int
}

// PlaceSelection resolves the selected starter-process keys against the
// catalog and assigns each a deterministic position: the column is the value
// stream's display-order index, the row is the process's 0-based position
// among the selected processes sharing its stream. Keys with no catalog entry
// are silently dropped. No two placements share the same (x, y).
func PlaceSelection(keys []string) []Placement {
	var selected []catalog.StarterProcess
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		if p, ok := catalog.Lookup(key); ok {
			selected = append(selected, p)
		}
	}

	rows := make(map[string]int, 4)
	placements := make([]Placement, 0, len(selected))
	for _, p := range selected {
		row := rows[p.ValueStream]
		rows[p.ValueStream]++
		placements = append(placements, Placement{
			Process: p,
			X:       catalog.StreamIndex(p.ValueStream) * ColumnWidth,
			Y:       row * RowHeight,
		})
	}
	return placements
}

// Node is a renderable graph node for a canvas process. Position is taken
// verbatim from the stored coordinates.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type NodeData struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	ValueStream string `json:"value_stream"`
	Color       string `json:"color"`
}

// Edge is a renderable graph edge for a process relationship.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
	Type   string `json:"type"`
}

const (
	nodeType = "processNode"
	edgeType = "smoothstep"
)

// Nodes maps canvas processes to graph nodes, one per record.
func Nodes(processes []*models.CanvasProcess) []Node {
	nodes := make([]Node, 0, len(processes))
	for _, p := range processes {
		nodes = append(nodes, Node{
			ID:       p.ProcessID.String(),
			Type:     nodeType,
			Position: Position{X: p.X, Y: p.Y},
			Data: NodeData{
				Key:         p.Key,
				Name:        p.Name,
				ValueStream: p.ValueStream,
				Color:       ColorForValueStream(p.ValueStream),
			},
		})
	}
	return nodes
}

// Edges maps process relationships to graph edges, one per record.
// An absent label renders as no caption.
func Edges(relationships []*models.ProcessRelationship) []Edge {
	edges := make([]Edge, 0, len(relationships))
	for _, r := range relationships {
		var label string
		if r.Label != nil {
			label = *r.Label
		}
		edges = append(edges, Edge{
			ID:     r.RelationshipID.String(),
			Source: r.FromProcess.String(),
			Target: r.ToProcess.String(),
			Label:  label,
			Type:   edgeType,
		})
	}
	return edges
}

// FallbackColor is used for any value stream the palette doesn't know.
const FallbackColor = "#6b7280"

var streamColors = map[string]string{
	catalog.Strategy2Portfolio: "#3b82f6",
	catalog.Requirement2Deploy: "#10b981",
	catalog.Request2Fulfill:    "#f59e0b",
	catalog.Detect2Correct:     "#ef4444",
}

// ColorForValueStream returns the fixed color for a value stream.
// Same input always yields the same output; the legend and minimap depend on that.
func ColorForValueStream(valueStream string) string {
	if c, ok := streamColors[valueStream]; ok {
		return c
	}
	return FallbackColor
}

// Processes builds the CanvasProcess rows for a set of placements, ready for
// bulk insert. IDs are assigned here so the caller gets stable references.
func Processes(orgID uuid.UUID, placements []Placement) []*models.CanvasProcess {
	out := make([]*models.CanvasProcess, 0, len(placements))
	for _, pl := range placements {
		out = append(out, &models.CanvasProcess{
			ProcessID:   uuid.Must(uuid.NewV7()),
			OrgID:       orgID,
			Key:         pl.Process.Key,
			Name:        pl.Process.Name,
			ValueStream: pl.Process.ValueStream,
			X:           pl.X,
			Y:           pl.Y,
		})
	}
	return out
}
