// Package graph implements the canonical labeled graph store.
//
// A [Graph] owns nodes and directed edges, each carrying an [ast.TaggedValue]
// label that is checked against the schemas installed by [Graph.Initialize].
// Nodes are deduplicated by structural label equality: [Graph.FindOrAddNode]
// returns the existing id when an equal label was seen before, so identical
// log facts observed repeatedly while parsing collapse to one node. Edges
// are never deduplicated; repeated events between the same endpoints are
// represented by edge multiplicity.
//
// Node and edge enumeration follows insertion order (per target node for
// edges). That order is an observable contract relied on by the export
// layer for byte-identical re-exports.
//
// A Graph is built by a single owner; it provides no internal locking.
// Once construction is finished, concurrent readers (transforms, exports)
// are safe as long as no writer is active.
package graph
