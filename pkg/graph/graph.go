package graph

import (
	"bytes"
	"encoding/json"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/astra"
)

// Node is one vertex of the viewer graph.
type Node struct {
	ID    string `json:"id" validate:"required"`
	Group string `json:"group" validate:"required"`

	// Z is the layer coordinate set by Annotate.
	Z *float64 `json:"z,omitempty"`
	// FX and FY fix the node in the x/y plane. Free nodes carry them as null.
	FX   *float64 `json:"fx,omitempty"`
	FY   *float64 `json:"fy,omitempty"`
	Free bool     `json:"-"`
}

// Link is a directed relation between two nodes.
type Link struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	Label  string `json:"label"`
}

// Graph is the document served to the viewer.
type Graph struct {
	Nodes []Node `json:"nodes" validate:"dive"`
	Links []Link `json:"links" validate:"dive"`
}

// New returns an empty graph whose slices marshal as [] rather than null.
func New() *Graph {
	return &Graph{Nodes: []Node{}, Links: []Link{}}
}

// NodeID is the viewer id of a catalog element.
func NodeID(group astra.Group, id string) string {
	return string(group) + "::" + id
}

// FromEdges converts catalog edges into a graph. Nodes are registered in
// first-seen order; every edge yields one link, duplicates included.
func FromEdges(edges []astra.Edge) *Graph {
	g := New()
	seen := make(map[string]bool, len(edges))
	register := func(group astra.Group, id string) string {
		nid := NodeID(group, id)
		if !seen[nid] {
			seen[nid] = true
			g.Nodes = append(g.Nodes, Node{ID: nid, Group: string(group)})
		}
		return nid
	}

	for _, e := range edges {
		src := register(e.SourceType, e.SourceID)
		dst := register(e.TargetType, e.TargetID)
		g.Links = append(g.Links, Link{Source: src, Target: dst, Label: string(e.Relation)})
	}
	return g
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodesInGroup returns the nodes of one group, or all nodes when group is
// empty.
func (g *Graph) NodesInGroup(group string) []Node {
	out := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if group == "" || n.Group == group {
			out = append(out, n)
		}
	}
	return out
}

// LinksWithLabel returns the links carrying label, or all links when label
// is empty.
func (g *Graph) LinksWithLabel(label string) []Link {
	out := make([]Link, 0, len(g.Links))
	for _, l := range g.Links {
		if label == "" || l.Label == label {
			out = append(out, l)
		}
	}
	return out
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Links: make([]Link, len(g.Links)),
	}
	copy(c.Links, g.Links)
	for i, n := range g.Nodes {
		n.Z = clonePtr(n.Z)
		n.FX = clonePtr(n.FX)
		n.FY = clonePtr(n.FY)
		c.Nodes[i] = n
	}
	return c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// MarshalJSON keeps empty collections as [] so the viewer can iterate them.
func (g Graph) MarshalJSON() ([]byte, error) {
	type plain Graph
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Links == nil {
		g.Links = []Link{}
	}
	return json.Marshal(plain(g))
}

// MarshalJSON writes fx and fy as explicit nulls for free nodes.
func (n Node) MarshalJSON() ([]byte, error) {
	type fixed struct {
		ID    string   `json:"id"`
		Group string   `json:"group"`
		Z     *float64 `json:"z,omitempty"`
		FX    *float64 `json:"fx,omitempty"`
		FY    *float64 `json:"fy,omitempty"`
	}
	type free struct {
		ID    string   `json:"id"`
		Group string   `json:"group"`
		Z     *float64 `json:"z,omitempty"`
		FX    *float64 `json:"fx"`
		FY    *float64 `json:"fy"`
	}
	if n.Free {
		return json.Marshal(free{n.ID, n.Group, n.Z, n.FX, n.FY})
	}
	return json.Marshal(fixed{n.ID, n.Group, n.Z, n.FX, n.FY})
}

// UnmarshalJSON marks a node free when fx or fy is present as null.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    string          `json:"id"`
		Group string          `json:"group"`
		Z     *float64        `json:"z"`
		FX    json.RawMessage `json:"fx"`
		FY    json.RawMessage `json:"fy"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Node{ID: raw.ID, Group: raw.Group, Z: raw.Z}

	var err error
	var nullFX, nullFY bool
	if n.FX, nullFX, err = optionalFloat(raw.FX); err != nil {
		return err
	}
	if n.FY, nullFY, err = optionalFloat(raw.FY); err != nil {
		return err
	}
	n.Free = nullFX || nullFY
	return nil
}

func optionalFloat(raw json.RawMessage) (v *float64, null bool, err error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, false, err
	}
	return &f, false, nil
}
