package visualization

import (
	"math"
	"sort"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

// nodeOrder lists node ids in document order without duplicates.
func nodeOrder(g *graph.Graph) []string {
	if g == nil {
		return nil
	}
	seen := make(map[string]bool, len(g.Nodes))
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if !seen[n.ID] {
			seen[n.ID] = true
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// groupLayers maps node id to its group's z layer.
func groupLayers(g *graph.Graph) map[string]float64 {
	layers := make(map[string]float64)
	if g == nil {
		return layers
	}
	for _, n := range g.Nodes {
		layers[n.ID] = graph.ZForGroup(n.Group)
	}
	return layers
}

// adjacency returns the undirected neighbour sets of the graph, ignoring
// links to unknown nodes and self loops.
func adjacency(g *graph.Graph) map[string]map[string]bool {
	known := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		known[n.ID] = true
	}
	neighbors := make(map[string]map[string]bool, len(g.Nodes))
	add := func(a, b string) {
		if neighbors[a] == nil {
			neighbors[a] = make(map[string]bool)
		}
		neighbors[a][b] = true
	}
	for _, l := range g.Links {
		if l.Source == l.Target || !known[l.Source] || !known[l.Target] {
			continue
		}
		add(l.Source, l.Target)
		add(l.Target, l.Source)
	}
	return neighbors
}

// levelsByGroup buckets node ids by group, ordered by z layer. Groups
// sharing a layer are ordered by name; nodes keep document order.
func levelsByGroup(g *graph.Graph) [][]string {
	if g == nil {
		return nil
	}
	byGroup := make(map[string][]string)
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		byGroup[n.Group] = append(byGroup[n.Group], n.ID)
	}

	groups := make([]string, 0, len(byGroup))
	for group := range byGroup {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		zi, zj := graph.ZForGroup(groups[i]), graph.ZForGroup(groups[j])
		if zi != zj {
			return zi < zj
		}
		return groups[i] < groups[j]
	})

	levels := make([][]string, 0, len(groups))
	for _, group := range groups {
		levels = append(levels, byGroup[group])
	}
	return levels
}

func withLayers(positions map[string]Position, layers map[string]float64) map[string]Position {
	for id, p := range positions {
		p.Z = layers[id]
		positions[id] = p
	}
	return positions
}

// normalizePositions scales positions to fit within bounds
func normalizePositions(positions map[string]Position, width, height, padding float64) map[string]Position {
	if len(positions) == 0 {
		return positions
	}

	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64

	for _, pos := range positions {
		minX = math.Min(minX, pos.X)
		maxX = math.Max(maxX, pos.X)
		minY = math.Min(minY, pos.Y)
		maxY = math.Max(maxY, pos.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX < 0.01 {
		rangeX = 1
	}
	if rangeY < 0.01 {
		rangeY = 1
	}

	targetWidth := width - 2*padding
	targetHeight := height - 2*padding

	normalized := make(map[string]Position, len(positions))
	for nodeID, pos := range positions {
		normalized[nodeID] = Position{
			X: padding + ((pos.X-minX)/rangeX)*targetWidth,
			Y: padding + ((pos.Y-minY)/rangeY)*targetHeight,
			Z: pos.Z,
		}
	}

	return normalized
}
