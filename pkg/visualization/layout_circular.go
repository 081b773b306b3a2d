package visualization

import (
	"math"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

// CircularLayout arranges nodes on a circle, grouped by layer so each
// group occupies one arc.
type CircularLayout struct {
	config *LayoutConfig
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *LayoutConfig) *CircularLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &CircularLayout{config: config}
}

// ComputeLayout arranges nodes in a circle
func (cl *CircularLayout) ComputeLayout(g *graph.Graph) (map[string]Position, error) {
	positions := make(map[string]Position)

	var nodeIDs []string
	for _, level := range levelsByGroup(g) {
		nodeIDs = append(nodeIDs, level...)
	}
	if len(nodeIDs) == 0 {
		return positions, nil
	}

	centerX := cl.config.Width / 2
	centerY := cl.config.Height / 2
	radius := math.Min(centerX, centerY) - cl.config.Padding
	angleStep := 2 * math.Pi / float64(len(nodeIDs))

	layers := groupLayers(g)
	for i, nodeID := range nodeIDs {
		angle := float64(i) * angleStep
		positions[nodeID] = Position{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
			Z: layers[nodeID],
		}
	}

	return positions, nil
}
