// Package graphql exposes translated graphs through a read-only GraphQL
// schema.
package graphql

import (
	"context"
	"fmt"
	"sort"

	"github.com/graphql-go/graphql"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
)

// Source resolves graph documents by name.
type Source interface {
	Names() ([]string, error)
	Get(ctx context.Context, name string) (*graph.Graph, error)
}

// LimitConfig bounds list results.
type LimitConfig struct {
	DefaultLimit int // used when no limit argument is given; 0 means all
	MaxLimit     int
}

// DefaultLimitConfig returns the limits used by NewSchema.
func DefaultLimitConfig() LimitConfig {
	return LimitConfig{DefaultLimit: 0, MaxLimit: 10000}
}

func (c LimitConfig) apply(requested, total int) int {
	n := requested
	if n <= 0 {
		n = c.DefaultLimit
	}
	if n <= 0 || n > total {
		n = total
	}
	if c.MaxLimit > 0 && n > c.MaxLimit {
		n = c.MaxLimit
	}
	return n
}

type schemaBuilder struct {
	src     Source
	variant graph.Variant
	limits  LimitConfig

	nodeType  *graphql.Object
	linkType  *graphql.Object
	countType *graphql.Object
	statsType *graphql.Object
}

// NewSchema builds the query schema over src.
func NewSchema(src Source, variant graph.Variant, limits LimitConfig) (graphql.Schema, error) {
	b := &schemaBuilder{src: src, variant: variant, limits: limits}
	b.defineTypes()

	graphArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String), Description: "graph name"}
	limitArg := &graphql.ArgumentConfig{Type: graphql.Int}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"graphs": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return src.Names()
				},
			},
			"nodes": &graphql.Field{
				Type: graphql.NewList(b.nodeType),
				Args: graphql.FieldConfigArgument{
					"graph": graphArg,
					"group": &graphql.ArgumentConfig{Type: graphql.String},
					"limit": limitArg,
				},
				Resolve: b.resolveNodes,
			},
			"node": &graphql.Field{
				Type: b.nodeType,
				Args: graphql.FieldConfigArgument{
					"graph": graphArg,
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: b.resolveNode,
			},
			"links": &graphql.Field{
				Type: graphql.NewList(b.linkType),
				Args: graphql.FieldConfigArgument{
					"graph": graphArg,
					"label": &graphql.ArgumentConfig{Type: graphql.String},
					"limit": limitArg,
				},
				Resolve: b.resolveLinks,
			},
			"stats": &graphql.Field{
				Type: b.statsType,
				Args: graphql.FieldConfigArgument{"graph": graphArg},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					v, err := b.view(p)
					if err != nil {
						return nil, err
					}
					return v.g.ComputeStats(), nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: query})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func (b *schemaBuilder) view(p graphql.ResolveParams) (*view, error) {
	name, _ := p.Args["graph"].(string)
	g, err := b.src.Get(p.Context, name)
	if err != nil {
		return nil, err
	}
	return newView(g.Annotate()), nil
}

func (b *schemaBuilder) resolveNodes(p graphql.ResolveParams) (any, error) {
	v, err := b.view(p)
	if err != nil {
		return nil, err
	}
	group, _ := p.Args["group"].(string)
	limit, _ := p.Args["limit"].(int)

	var out []nodeRef
	for i, n := range v.g.Nodes {
		if group == "" || n.Group == group {
			out = append(out, nodeRef{v: v, i: i})
		}
	}
	return out[:b.limits.apply(limit, len(out))], nil
}

func (b *schemaBuilder) resolveNode(p graphql.ResolveParams) (any, error) {
	v, err := b.view(p)
	if err != nil {
		return nil, err
	}
	id, _ := p.Args["id"].(string)
	i, ok := v.byID[id]
	if !ok {
		return nil, nil
	}
	return nodeRef{v: v, i: i}, nil
}

func (b *schemaBuilder) resolveLinks(p graphql.ResolveParams) (any, error) {
	v, err := b.view(p)
	if err != nil {
		return nil, err
	}
	label, _ := p.Args["label"].(string)
	limit, _ := p.Args["limit"].(int)

	var out []linkRef
	for i, l := range v.g.Links {
		if label == "" || l.Label == label {
			out = append(out, linkRef{v: v, i: i})
		}
	}
	return out[:b.limits.apply(limit, len(out))], nil
}

type countEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func sortedCounts(m map[string]int) []countEntry {
	out := make([]countEntry, 0, len(m))
	for k, n := range m {
		out = append(out, countEntry{Name: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
