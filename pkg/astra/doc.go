// Package astra defines the AStRA provenance model shared by the buildinfo
// and SBOM translators.
//
// A provenance graph has four kinds of element: principals that carry out
// build steps, steps that consume resources, and artifacts that steps
// produce. Translators emit either a full Document (buildinfo) or a flat
// list of typed Edges (SBOMs); both reduce to the same Edge catalog, which
// the graph package turns into the viewer's nodes/links document.
package astra
