package visualization

import (
	"encoding/json"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

// NodeViz is a node with its computed position and display attributes.
type NodeViz struct {
	ID    string  `json:"id"`
	Group string  `json:"group"`
	Label string  `json:"label"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

// LinkViz is a link with its display colour.
type LinkViz struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Color  string `json:"color"`
}

// Visualization represents a graph visualization with layout
type Visualization struct {
	Algorithm string    `json:"algorithm"`
	Nodes     []NodeViz `json:"nodes"`
	Links     []LinkViz `json:"links"`
}

// Export combines a graph with computed positions into a static
// visualization document.
func Export(g *graph.Graph, positions map[string]Position, algorithm string, variant graph.Variant) *Visualization {
	v := &Visualization{
		Algorithm: algorithm,
		Nodes:     make([]NodeViz, 0, len(g.Nodes)),
		Links:     make([]LinkViz, 0, len(g.Links)),
	}
	for _, n := range g.Nodes {
		pos, ok := positions[n.ID]
		if !ok {
			pos.Z = graph.ZForGroup(n.Group)
		}
		v.Nodes = append(v.Nodes, NodeViz{
			ID:    n.ID,
			Group: n.Group,
			Label: graph.NodeLabel(n, variant),
			Color: graph.GroupColor(n.Group),
			X:     pos.X,
			Y:     pos.Y,
			Z:     pos.Z,
		})
	}
	for _, l := range g.Links {
		v.Links = append(v.Links, LinkViz{
			Source: l.Source,
			Target: l.Target,
			Label:  l.Label,
			Color:  graph.LinkColor(l.Label),
		})
	}
	return v
}

// ExportJSON exports the visualization to JSON
func (v *Visualization) ExportJSON() ([]byte, error) {
	return json.Marshal(v)
}

// Compute runs the named layout and exports the result.
func Compute(g *graph.Graph, algorithm string, config *LayoutConfig, variant graph.Variant) (*Visualization, error) {
	layout, err := New(algorithm, config)
	if err != nil {
		return nil, err
	}
	positions, err := layout.ComputeLayout(g)
	if err != nil {
		return nil, err
	}
	if algorithm == "" {
		algorithm = AlgorithmForce
	}
	return Export(g, positions, algorithm, variant), nil
}
