package graph

import "github.com/damianmunoz/debinfo-dispatcher/pkg/astra"

type linkKey struct {
	source, target, label string
}

// Builder assembles a graph while collapsing repeated nodes and links.
// It is not safe for concurrent use.
type Builder struct {
	g     *Graph
	nodes map[string]bool
	links map[linkKey]bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		g:     New(),
		nodes: make(map[string]bool),
		links: make(map[linkKey]bool),
	}
}

// AddNode registers a node unless its id is already present.
func (b *Builder) AddNode(id, group string) *Builder {
	if !b.nodes[id] {
		b.nodes[id] = true
		b.g.Nodes = append(b.g.Nodes, Node{ID: id, Group: group})
	}
	return b
}

// AddLink registers a link unless the same source, target and label were
// already added. Endpoints are not checked here; see Validate.
func (b *Builder) AddLink(source, target, label string) *Builder {
	key := linkKey{source, target, label}
	if !b.links[key] {
		b.links[key] = true
		b.g.Links = append(b.g.Links, Link{Source: source, Target: target, Label: label})
	}
	return b
}

// AddEdge adds both endpoints of a catalog edge and the link between them.
func (b *Builder) AddEdge(e astra.Edge) *Builder {
	src := NodeID(e.SourceType, e.SourceID)
	dst := NodeID(e.TargetType, e.TargetID)
	b.AddNode(src, string(e.SourceType))
	b.AddNode(dst, string(e.TargetType))
	return b.AddLink(src, dst, string(e.Relation))
}

// AddEdges adds every edge in order.
func (b *Builder) AddEdges(edges []astra.Edge) *Builder {
	for _, e := range edges {
		b.AddEdge(e)
	}
	return b
}

// Graph returns the assembled graph. The builder must not be reused.
func (b *Builder) Graph() *Graph {
	return b.g
}

// FromDocument builds the deduplicated graph of a provenance document.
func FromDocument(doc *astra.Document) *Graph {
	return NewBuilder().AddEdges(doc.Edges()).Graph()
}
