// Package graph holds the node/link document consumed by the 3D provenance
// viewer, together with the styling rules the viewer applies to it: the z
// layer of each group, the colour of each relation and the node labels.
//
// A Graph is usually built from catalog edges with FromEdges, or through a
// Builder when duplicate links must be collapsed. Annotate prepares a graph
// for the viewer by pinning every node to its group's layer and leaving x/y
// free for the physics simulation.
package graph
