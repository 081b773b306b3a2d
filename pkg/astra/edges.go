package astra

// Edges flattens the document into catalog edges. For every step the
// principals carry it out, each consumed resource is used by it and each
// output artifact is produced by it. Ids that do not resolve to an element
// in the document are still emitted so no provenance is silently lost.
func (d *Document) Edges() []Edge {
	if d == nil {
		return nil
	}
	var edges []Edge
	for _, step := range d.Steps {
		for _, p := range d.Principals {
			edges = append(edges, NewEdge(GroupPrincipal, p.ID, RelCarriesOut, GroupStep, step.ID))
		}
		for _, rid := range step.Consumed {
			edges = append(edges, NewEdge(GroupResource, rid, RelUsedBy, GroupStep, step.ID))
		}
		for _, aid := range step.Outputs {
			edges = append(edges, NewEdge(GroupStep, step.ID, RelProduces, GroupArtifact, aid))
		}
	}
	return edges
}

// Resource returns the resource with the given id.
func (d *Document) Resource(id string) (Resource, bool) {
	for _, r := range d.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return Resource{}, false
}

// Artifact returns the artifact with the given id.
func (d *Document) Artifact(id string) (Artifact, bool) {
	for _, a := range d.Artifacts {
		if a.ID == id {
			return a, true
		}
	}
	return Artifact{}, false
}
