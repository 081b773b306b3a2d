package graph

import (
	"hash/fnv"
	"maps"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/astra"
)

// DefaultZ is the layer of nodes whose group is not one of the AStRA groups.
const DefaultZ = 300

// DefaultLinkColor is used for relations without an assigned colour.
const DefaultLinkColor = "gray"

var layers = map[string]float64{
	string(astra.GroupPrincipal): -300,
	string(astra.GroupStep):      -150,
	string(astra.GroupResource):  0,
	string(astra.GroupArtifact):  150,
}

var linkColors = map[string]string{
	string(astra.RelUsedBy):     "deepskyblue",
	string(astra.RelCarriesOut): "violet",
	string(astra.RelProduces):   "gold",
	string(astra.RelConsumes):   "tomato",
}

var groupColors = map[string]string{
	string(astra.GroupPrincipal): "#e377c2",
	string(astra.GroupStep):      "#1f77b4",
	string(astra.GroupResource):  "#2ca02c",
	string(astra.GroupArtifact):  "#ff7f0e",
}

// palette colours groups outside the AStRA set.
var palette = []string{
	"#9467bd", "#8c564b", "#7f7f7f", "#bcbd22", "#17becf",
	"#aec7e8", "#ffbb78", "#98df8a", "#ff9896", "#c5b0d5",
}

// ZForGroup returns the layer coordinate of a group.
func ZForGroup(group string) float64 {
	if z, ok := layers[group]; ok {
		return z
	}
	return DefaultZ
}

// LinkColor returns the display colour of a relation label.
func LinkColor(label string) string {
	if c, ok := linkColors[label]; ok {
		return c
	}
	return DefaultLinkColor
}

// GroupColor returns a stable colour per group, the server-side stand-in
// for the viewer's nodeAutoColorBy.
func GroupColor(group string) string {
	if c, ok := groupColors[group]; ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(group))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Variant selects between the provenance and SBOM viewers.
type Variant string

const (
	VariantProvenance Variant = "provenance"
	VariantSBOM       Variant = "sbom"
)

// ParseVariant maps an arbitrary string to a Variant, defaulting to
// provenance.
func ParseVariant(s string) Variant {
	if Variant(s) == VariantSBOM {
		return VariantSBOM
	}
	return VariantProvenance
}

// NodeLabel is the hover label of a node: "group: id" in the provenance
// viewer and the bare id in the SBOM viewer.
func NodeLabel(n Node, v Variant) string {
	if v == VariantSBOM {
		return n.ID
	}
	return n.Group + ": " + n.ID
}

// RenderConfig carries the 3D library settings used by the viewer page.
type RenderConfig struct {
	NodeAutoColorBy       string   `json:"nodeAutoColorBy"`
	LinkLabel             string   `json:"linkLabel"`
	LinkWidth             float64  `json:"linkWidth"`
	Particles             int      `json:"linkDirectionalParticles"`
	ParticleSpeed         float64  `json:"linkDirectionalParticleSpeed"`
	ChargeStrength        *float64 `json:"chargeStrength,omitempty"`
	NodeThreeObjectExtend bool     `json:"nodeThreeObjectExtend"`
	LabelWithGroup        bool     `json:"labelWithGroup"`
}

// Style is the full styling table served to the viewer.
type Style struct {
	Variant          Variant            `json:"variant"`
	Layers           map[string]float64 `json:"layers"`
	DefaultZ         float64            `json:"defaultZ"`
	LinkColors       map[string]string  `json:"linkColors"`
	DefaultLinkColor string             `json:"defaultLinkColor"`
	Render           RenderConfig       `json:"render"`
}

// StyleFor returns the styling table of a viewer variant. The charge
// strength override only applies to the provenance viewer.
func StyleFor(v Variant) Style {
	render := RenderConfig{
		NodeAutoColorBy:       "group",
		LinkLabel:             "label",
		LinkWidth:             1.5,
		Particles:             2,
		ParticleSpeed:         0.005,
		NodeThreeObjectExtend: true,
		LabelWithGroup:        v != VariantSBOM,
	}
	if v != VariantSBOM {
		charge := -200.0
		render.ChargeStrength = &charge
	}

	s := Style{
		Variant:          v,
		Layers:           make(map[string]float64, len(layers)),
		DefaultZ:         DefaultZ,
		LinkColors:       make(map[string]string, len(linkColors)),
		DefaultLinkColor: DefaultLinkColor,
		Render:           render,
	}
	maps.Copy(s.Layers, layers)
	maps.Copy(s.LinkColors, linkColors)
	return s
}

// Annotate pins every node to its group's layer and frees it in the x/y
// plane: z is set from the group and fx, fy become null.
func (g *Graph) Annotate() *Graph {
	for i := range g.Nodes {
		z := ZForGroup(g.Nodes[i].Group)
		g.Nodes[i].Z = &z
		g.Nodes[i].FX = nil
		g.Nodes[i].FY = nil
		g.Nodes[i].Free = true
	}
	return g
}
