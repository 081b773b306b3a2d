package visualization

import (
	"errors"
	"fmt"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

// Position is a node coordinate. Z is always the node's group layer.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
	Seed       int64   // Seed for the initial force-directed placement
}

// Layout computes a position for every node of a graph.
type Layout interface {
	ComputeLayout(g *graph.Graph) (map[string]Position, error)
}

// Layout algorithm names accepted by New.
const (
	AlgorithmForce        = "force"
	AlgorithmCircular     = "circular"
	AlgorithmHierarchical = "hierarchical"
)

// ErrUnknownAlgorithm is returned by New for unsupported algorithm names.
var ErrUnknownAlgorithm = errors.New("unknown layout algorithm")

// DefaultConfig is the canvas used when the caller gives no dimensions.
func DefaultConfig() *LayoutConfig {
	return &LayoutConfig{Width: 1000, Height: 800, Iterations: 50, Padding: 50, Seed: 1}
}

// New returns the layout for an algorithm name. An empty name selects the
// force-directed layout.
func New(algorithm string, config *LayoutConfig) (Layout, error) {
	if config == nil {
		config = DefaultConfig()
	}
	switch algorithm {
	case "", AlgorithmForce:
		return NewForceDirectedLayout(config), nil
	case AlgorithmCircular:
		return NewCircularLayout(config), nil
	case AlgorithmHierarchical:
		return NewHierarchicalLayout(config), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
}
