package graph

// Stats summarises a graph for the API, the TUI and the CLI.
type Stats struct {
	Nodes   int            `json:"nodes"`
	Links   int            `json:"links"`
	Groups  map[string]int `json:"groups"`
	Labels  map[string]int `json:"labels"`
	Sources int            `json:"sources"`
	Sinks   int            `json:"sinks"`
}

// ComputeStats counts nodes per group and links per label. Sources have no
// inbound links and sinks no outbound links.
func (g *Graph) ComputeStats() Stats {
	s := Stats{
		Nodes:  len(g.Nodes),
		Links:  len(g.Links),
		Groups: make(map[string]int),
		Labels: make(map[string]int),
	}
	in := make(map[string]int, len(g.Nodes))
	out := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		s.Groups[n.Group]++
	}
	for _, l := range g.Links {
		s.Labels[l.Label]++
		out[l.Source]++
		in[l.Target]++
	}
	for _, n := range g.Nodes {
		if in[n.ID] == 0 {
			s.Sources++
		}
		if out[n.ID] == 0 {
			s.Sinks++
		}
	}
	return s
}
