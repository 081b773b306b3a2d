package visualization

import (
	"math"
	"math/rand"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

// ForceDirectedLayout implements force-directed graph layout in the x/y
// plane. Nodes stay on their group's z layer.
type ForceDirectedLayout struct {
	config *LayoutConfig
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout(config *LayoutConfig) *ForceDirectedLayout {
	if config.Iterations == 0 {
		config.Iterations = 50
	}
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &ForceDirectedLayout{config: config}
}

// ComputeLayout computes positions using force-directed algorithm
func (fdl *ForceDirectedLayout) ComputeLayout(g *graph.Graph) (map[string]Position, error) {
	nodeIDs := nodeOrder(g)
	if len(nodeIDs) == 0 {
		return make(map[string]Position), nil
	}
	layers := groupLayers(g)

	// Single node - center it
	if len(nodeIDs) == 1 {
		return map[string]Position{
			nodeIDs[0]: {
				X: fdl.config.Width / 2,
				Y: fdl.config.Height / 2,
				Z: layers[nodeIDs[0]],
			},
		}, nil
	}

	rng := rand.New(rand.NewSource(fdl.config.Seed))
	positions := make(map[string]Position, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		positions[nodeID] = Position{
			X: rng.Float64()*(fdl.config.Width-2*fdl.config.Padding) + fdl.config.Padding,
			Y: rng.Float64()*(fdl.config.Height-2*fdl.config.Padding) + fdl.config.Padding,
		}
	}

	neighbors := adjacency(g)

	k := math.Sqrt((fdl.config.Width * fdl.config.Height) / float64(len(nodeIDs))) // optimal distance
	temperature := fdl.config.Width / 10.0

	for iter := 0; iter < fdl.config.Iterations; iter++ {
		forces := make(map[string]Position, len(nodeIDs))

		// Repulsion between all nodes
		for i, id1 := range nodeIDs {
			for j := i + 1; j < len(nodeIDs); j++ {
				id2 := nodeIDs[j]
				dx := positions[id1].X - positions[id2].X
				dy := positions[id1].Y - positions[id2].Y
				dist := math.Max(math.Sqrt(dx*dx+dy*dy), 0.01)

				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force

				f1, f2 := forces[id1], forces[id2]
				forces[id1] = Position{X: f1.X + fx, Y: f1.Y + fy}
				forces[id2] = Position{X: f2.X - fx, Y: f2.Y - fy}
			}
		}

		// Attraction between linked nodes
		for _, id1 := range nodeIDs {
			for id2 := range neighbors[id1] {
				dx := positions[id1].X - positions[id2].X
				dy := positions[id1].Y - positions[id2].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					continue
				}

				force := (dist * dist) / k
				f := forces[id1]
				forces[id1] = Position{X: f.X - (dx/dist)*force, Y: f.Y - (dy/dist)*force}
			}
		}

		// Apply forces with cooling
		cool := 1.0 - float64(iter)/float64(fdl.config.Iterations)
		for _, nodeID := range nodeIDs {
			fx, fy := forces[nodeID].X, forces[nodeID].Y
			force := math.Sqrt(fx*fx + fy*fy)
			if force > 0 {
				step := math.Min(force, temperature) * cool
				p := positions[nodeID]
				positions[nodeID] = Position{X: p.X + (fx/force)*step, Y: p.Y + (fy/force)*step}
			}
		}

		temperature *= 0.95
	}

	normalized := normalizePositions(positions, fdl.config.Width, fdl.config.Height, fdl.config.Padding)
	return withLayers(normalized, layers), nil
}
