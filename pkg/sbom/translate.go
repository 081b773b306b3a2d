package sbom

import (
	"strings"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/astra"
)

const (
	// StepComponentDeclaration is the synthetic step that produces every
	// component declared in a CycloneDX BOM.
	StepComponentDeclaration = "ComponentDeclaration"
	// StepPackageImport is the synthetic step through which SPDX suppliers
	// produce packages.
	StepPackageImport = "PackageImport"
)

// Edges translates a loaded SBOM into provenance edges.
func Edges(doc *Document) []astra.Edge {
	if doc == nil {
		return nil
	}
	switch {
	case doc.CycloneDX != nil:
		return ParseCycloneDX(doc.CycloneDX)
	case doc.SPDX != nil:
		return ParseSPDX(doc.SPDX)
	}
	return nil
}

// ParseCycloneDX extracts edges from a CycloneDX BOM.
//
// Authors whose name mentions "tool" are treated as tools; otherwise the
// last named author is the principal. The principal uses every tool. Every
// named component is produced by the ComponentDeclaration step, and each
// dependsOn entry becomes an is_dependency_of edge toward its dependent.
func ParseCycloneDX(bom *CycloneDX) []astra.Edge {
	if bom == nil {
		return nil
	}
	var (
		edges     []astra.Edge
		principal string
		tools     []string
	)

	for _, author := range bom.Metadata.Authors {
		name := strings.TrimSpace(author.Name)
		if name == "" {
			continue
		}
		if strings.Contains(strings.ToLower(name), "tool") {
			tools = append(tools, name)
		} else {
			principal = name
		}
	}
	for _, tool := range bom.Metadata.Tools {
		if name := strings.TrimSpace(tool.Name); name != "" {
			tools = append(tools, name)
		}
	}

	if principal != "" {
		for _, tool := range tools {
			edges = append(edges, astra.NewEdge(astra.GroupPrincipal, principal, astra.RelUses, astra.GroupResource, tool))
		}
	}

	for _, comp := range bom.Components {
		if comp.Name == "" {
			continue
		}
		edges = append(edges, astra.NewEdge(astra.GroupStep, StepComponentDeclaration, astra.RelProduces, astra.GroupArtifact, comp.Name))
	}

	for _, dep := range bom.Dependencies {
		for _, on := range dep.DependsOn {
			edges = append(edges, astra.NewEdge(astra.GroupArtifact, on, astra.RelIsDependencyOf, astra.GroupArtifact, dep.Ref))
		}
	}
	return edges
}

// ParseSPDX extracts edges from an SPDX document. "Person:" creators name
// the principal (last wins) and "Tool:" creators the tools it uses. Each
// package supplied by an organization is imported through the
// PackageImport step.
func ParseSPDX(doc *SPDX) []astra.Edge {
	if doc == nil {
		return nil
	}
	var (
		edges     []astra.Edge
		principal string
		tools     []string
	)

	for _, creator := range doc.CreationInfo.Creators {
		switch {
		case strings.HasPrefix(creator, "Person:"):
			principal = strings.TrimSpace(strings.TrimPrefix(creator, "Person:"))
		case strings.HasPrefix(creator, "Tool:"):
			tools = append(tools, strings.TrimSpace(strings.TrimPrefix(creator, "Tool:")))
		}
	}

	if principal != "" {
		for _, tool := range tools {
			edges = append(edges, astra.NewEdge(astra.GroupPrincipal, principal, astra.RelUses, astra.GroupResource, tool))
		}
	}

	for _, pkg := range doc.Packages {
		if !strings.HasPrefix(pkg.Supplier, "Organization:") {
			continue
		}
		org := strings.TrimSpace(strings.TrimPrefix(pkg.Supplier, "Organization:"))
		edges = append(edges,
			astra.NewEdge(astra.GroupResource, org, astra.RelCarriesOut, astra.GroupStep, StepPackageImport),
			astra.NewEdge(astra.GroupStep, StepPackageImport, astra.RelProduces, astra.GroupArtifact, pkg.Name),
		)
	}
	return edges
}
