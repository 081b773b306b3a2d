package astra

// Group is the element category of a provenance node.
type Group string

const (
	GroupPrincipal Group = "Principal"
	GroupStep      Group = "Step"
	GroupResource  Group = "Resource"
	GroupArtifact  Group = "Artifact"
)

// Groups lists the known groups in layer order (principals first).
var Groups = []Group{GroupPrincipal, GroupStep, GroupResource, GroupArtifact}

// Known reports whether g is one of the four AStRA groups.
func (g Group) Known() bool {
	switch g {
	case GroupPrincipal, GroupStep, GroupResource, GroupArtifact:
		return true
	}
	return false
}

// Relation is the label on an edge between two elements.
type Relation string

const (
	RelCarriesOut     Relation = "carries_out"
	RelConsumes       Relation = "consumes"
	RelProduces       Relation = "produces"
	RelUsedBy         Relation = "used_by"
	RelUses           Relation = "uses"
	RelIsDependencyOf Relation = "is_dependency_of"
)

// Artifact is a build output or declared component.
type Artifact struct {
	ID       string            `json:"id"`
	Kind     string            `json:"kind"`
	Name     string            `json:"name"`
	Version  string            `json:"version"`
	Hash     string            `json:"hash,omitempty"`
	Size     int64             `json:"size,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Step is one build action.
type Step struct {
	ID          string            `json:"id"`
	Command     string            `json:"command"`
	Timestamp   string            `json:"timestamp"`
	Arch        string            `json:"architecture"`
	Environment map[string]string `json:"environment"`
	Consumed    []string          `json:"consumed_resources"`
	Outputs     []string          `json:"outputs"`
}

// Principal is the actor responsible for a step.
type Principal struct {
	ID       string            `json:"id"`
	Trust    string            `json:"trust_level"`
	Builder  string            `json:"builder"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Resource is an input consumed by a step.
type Resource struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	URI    string `json:"uri"`
	Format string `json:"format"`
	UsedBy string `json:"used_by,omitempty"`
}

// Document is the full element graph of one build. The "step" key is
// singular on the wire.
type Document struct {
	Artifacts  []Artifact  `json:"artifacts"`
	Steps      []Step      `json:"step"`
	Principals []Principal `json:"principals"`
	Resources  []Resource  `json:"resources"`
}

// Edge is one row of the provenance catalog.
type Edge struct {
	SourceType Group    `json:"source_type"`
	SourceID   string   `json:"source_id"`
	TargetType Group    `json:"target_type"`
	TargetID   string   `json:"target_id"`
	Relation   Relation `json:"relationship"`
}

// NewEdge is shorthand for building an Edge.
func NewEdge(srcType Group, srcID string, rel Relation, dstType Group, dstID string) Edge {
	return Edge{
		SourceType: srcType,
		SourceID:   srcID,
		TargetType: dstType,
		TargetID:   dstID,
		Relation:   rel,
	}
}
