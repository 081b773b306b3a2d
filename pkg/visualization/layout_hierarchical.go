package visualization

import (
	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

// HierarchicalLayout places each group on its own row, in layer order
// from principals at the top to artifacts at the bottom.
type HierarchicalLayout struct {
	config *LayoutConfig
}

// NewHierarchicalLayout creates a new hierarchical layout
func NewHierarchicalLayout(config *LayoutConfig) *HierarchicalLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &HierarchicalLayout{config: config}
}

// ComputeLayout arranges nodes hierarchically
func (hl *HierarchicalLayout) ComputeLayout(g *graph.Graph) (map[string]Position, error) {
	positions := make(map[string]Position)

	levels := levelsByGroup(g)
	if len(levels) == 0 {
		return positions, nil
	}

	layers := groupLayers(g)
	levelHeight := (hl.config.Height - 2*hl.config.Padding) / float64(len(levels))
	levelWidth := hl.config.Width - 2*hl.config.Padding

	for levelIdx, level := range levels {
		y := hl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		spacing := levelWidth / float64(len(level)+1)

		for nodeIdx, nodeID := range level {
			positions[nodeID] = Position{
				X: hl.config.Padding + spacing*float64(nodeIdx+1),
				Y: y,
				Z: layers[nodeID],
			}
		}
	}

	return positions, nil
}
