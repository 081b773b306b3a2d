package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

// view indexes one graph for the resolvers of a single request.
type view struct {
	g    *graph.Graph
	byID map[string]int
	out  map[string][]int
	in   map[string][]int
}

func newView(g *graph.Graph) *view {
	v := &view{
		g:    g,
		byID: make(map[string]int, len(g.Nodes)),
		out:  make(map[string][]int),
		in:   make(map[string][]int),
	}
	for i, n := range g.Nodes {
		v.byID[n.ID] = i
	}
	for i, l := range g.Links {
		v.out[l.Source] = append(v.out[l.Source], i)
		v.in[l.Target] = append(v.in[l.Target], i)
	}
	return v
}

type nodeRef struct {
	v *view
	i int
}

func (r nodeRef) node() graph.Node { return r.v.g.Nodes[r.i] }

type linkRef struct {
	v *view
	i int
}

func (r linkRef) link() graph.Link { return r.v.g.Links[r.i] }

func (r linkRef) endpoint(id string) any {
	if i, ok := r.v.byID[id]; ok {
		return nodeRef{v: r.v, i: i}
	}
	return nil
}

func (b *schemaBuilder) defineTypes() {
	b.nodeType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Node",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(nodeRef).node().ID, nil
				},
			},
			"group": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(nodeRef).node().Group, nil
				},
			},
			"z": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return graph.ZForGroup(p.Source.(nodeRef).node().Group), nil
				},
			},
			"label": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return graph.NodeLabel(p.Source.(nodeRef).node(), b.variant), nil
				},
			},
			"color": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return graph.GroupColor(p.Source.(nodeRef).node().Group), nil
				},
			},
		},
	})

	b.linkType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Link",
		Fields: graphql.Fields{
			"source": &graphql.Field{
				Type: b.nodeType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					r := p.Source.(linkRef)
					return r.endpoint(r.link().Source), nil
				},
			},
			"target": &graphql.Field{
				Type: b.nodeType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					r := p.Source.(linkRef)
					return r.endpoint(r.link().Target), nil
				},
			},
			"label": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(linkRef).link().Label, nil
				},
			},
			"color": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return graph.LinkColor(p.Source.(linkRef).link().Label), nil
				},
			},
		},
	})

	adjacent := func(pick func(*view) map[string][]int) *graphql.Field {
		return &graphql.Field{
			Type: graphql.NewList(b.linkType),
			Args: graphql.FieldConfigArgument{
				"label": &graphql.ArgumentConfig{Type: graphql.String},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				r := p.Source.(nodeRef)
				label, _ := p.Args["label"].(string)
				var out []linkRef
				for _, li := range pick(r.v)[r.node().ID] {
					if label == "" || r.v.g.Links[li].Label == label {
						out = append(out, linkRef{v: r.v, i: li})
					}
				}
				return out, nil
			},
		}
	}
	b.nodeType.AddFieldConfig("outgoing", adjacent(func(v *view) map[string][]int { return v.out }))
	b.nodeType.AddFieldConfig("incoming", adjacent(func(v *view) map[string][]int { return v.in }))

	b.countType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Count",
		Fields: graphql.Fields{
			"name":  &graphql.Field{Type: graphql.String},
			"count": &graphql.Field{Type: graphql.Int},
		},
	})

	b.statsType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Stats",
		Fields: graphql.Fields{
			"nodes":   &graphql.Field{Type: graphql.Int},
			"links":   &graphql.Field{Type: graphql.Int},
			"sources": &graphql.Field{Type: graphql.Int},
			"sinks":   &graphql.Field{Type: graphql.Int},
			"groups": &graphql.Field{
				Type: graphql.NewList(b.countType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return sortedCounts(p.Source.(graph.Stats).Groups), nil
				},
			},
			"labels": &graphql.Field{
				Type: graphql.NewList(b.countType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return sortedCounts(p.Source.(graph.Stats).Labels), nil
				},
			},
		},
	})
}
