// Package transform implements structural graph-to-graph rewrites.
//
// Every rewrite is a pure function: it reads its input graph, never mutates
// it, and returns a freshly built graph carrying the same schemas. That
// keeps rewrites composable and lets the caller diff the result against the
// original or apply several independent edits from the same base.
package transform

import (
	"github.com/logweave/logweave/pkg/check"
	"github.com/logweave/logweave/pkg/graph"
)

// DeleteNodes returns a new graph containing every node of g except those
// in ids, and every edge of g except those with a deleted endpoint. Edges
// are removed entirely when either endpoint is deleted; there is no
// bridging across a deleted node (for A→B→C with B deleted, the result has
// no A→C edge). Ids not present in g are ignored, so batched deletion
// requests are idempotent. Surviving nodes and edges keep their relative
// order.
func DeleteNodes(g *graph.Graph, ids []graph.NodeID) *graph.Graph {
	drop := make(map[graph.NodeID]bool, len(ids))
	for _, id := range ids {
		if g.HasNode(id) {
			drop[id] = true
		}
	}

	out := graph.New()
	out.Initialize(g.Schemas())

	// Surviving labels were schema-checked when first added and the output
	// graph carries the same schemas, so these operations cannot fail.
	remap := make(map[graph.NodeID]graph.NodeID, g.NodeCount()-len(drop))
	for _, id := range g.Nodes() {
		if drop[id] {
			continue
		}
		nid, err := out.FindOrAddNode(g.NodeLabel(id))
		check.Thatf(err == nil, "transform: re-adding checked label: %v", err)
		remap[id] = nid
		for _, attr := range g.NodeAttributes(id) {
			check.Thatf(out.SetNodeAttribute(nid, attr) == nil, "transform: re-adding checked attribute on node %d", nid)
		}
	}

	for _, dst := range g.Nodes() {
		if drop[dst] {
			continue
		}
		for _, eid := range g.EdgesInto(dst) {
			src := g.EdgeSource(eid)
			if drop[src] {
				continue
			}
			ne, err := out.AddEdge(remap[src], remap[dst], g.EdgeLabel(eid))
			check.Thatf(err == nil, "transform: re-adding checked edge: %v", err)
			for _, attr := range g.EdgeAttributes(eid) {
				check.Thatf(out.SetEdgeAttribute(ne, attr) == nil, "transform: re-adding checked attribute on edge %d", ne)
			}
		}
	}

	return out
}
