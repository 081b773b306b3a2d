package graph

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genGroup() gopter.Gen {
	return gen.OneGenOf(
		gen.OneConstOf("Principal", "Step", "Resource", "Artifact"),
		gen.AlphaString(),
	)
}

// TestStylingInvariants checks the viewer styling rules over arbitrary
// groups, labels and graphs.
func TestStylingInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("z depends only on group", prop.ForAll(
		func(group string) bool {
			z := ZForGroup(group)
			switch group {
			case "Principal":
				return z == -300
			case "Step":
				return z == -150
			case "Resource":
				return z == 0
			case "Artifact":
				return z == 150
			}
			return z == 300
		},
		genGroup(),
	))

	properties.Property("unknown labels are gray", prop.ForAll(
		func(label string) bool {
			switch label {
			case "used_by", "carries_out", "produces", "consumes":
				return LinkColor(label) != "gray"
			}
			return LinkColor(label) == "gray"
		},
		gen.OneGenOf(gen.OneConstOf("used_by", "carries_out", "produces", "consumes"), gen.AlphaString()),
	))

	properties.Property("annotation frees every node", prop.ForAll(
		func(ids []string, groups []string) bool {
			g := New()
			for i, id := range ids {
				g.Nodes = append(g.Nodes, Node{ID: id, Group: groups[i%len(groups)]})
			}
			g.Annotate()

			data, err := json.Marshal(g)
			if err != nil {
				return false
			}
			var raw struct {
				Nodes []map[string]any `json:"nodes"`
			}
			if err := json.Unmarshal(data, &raw); err != nil {
				return false
			}
			for i, n := range raw.Nodes {
				fx, hasFX := n["fx"]
				fy, hasFY := n["fy"]
				if !hasFX || !hasFY || fx != nil || fy != nil {
					return false
				}
				if n["z"] != ZForGroup(g.Nodes[i].Group) {
					return false
				}
			}
			return len(raw.Nodes) == len(ids)
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOfN(3, genGroup()),
	))

	properties.Property("annotation is idempotent", prop.ForAll(
		func(group string) bool {
			g := &Graph{Nodes: []Node{{ID: "n", Group: group}}}
			first, _ := json.Marshal(g.Clone().Annotate())
			second, _ := json.Marshal(g.Annotate().Annotate())
			return string(first) == string(second)
		},
		genGroup(),
	))

	properties.TestingRun(t)
}
