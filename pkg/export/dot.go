package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/logweave/logweave/pkg/ast"
	"github.com/logweave/logweave/pkg/graph"
)

// DotGraph renders g as Graphviz DOT text. One declaration is emitted per
// node in the graph's insertion order, then one per edge following the
// per-target insertion order, so the output is a pure function of the
// graph's content and re-exporting an unchanged graph is byte-identical.
func DotGraph(g *graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph logweave {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=rounded];\n")
	buf.WriteString("\n")

	for _, id := range g.Nodes() {
		fmt.Fprintf(&buf, "  %d [label=%q];\n", id, labelText(g.NodeLabel(id), g.NodeAttributes(id)))
	}

	buf.WriteString("\n")
	for _, dst := range g.Nodes() {
		for _, eid := range g.EdgesInto(dst) {
			fmt.Fprintf(&buf, "  %d -> %d [label=%q];\n",
				g.EdgeSource(eid), dst, labelText(g.EdgeLabel(eid), g.EdgeAttributes(eid)))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// labelText flattens a label and its attributes into the attribute string
// shown on a node or edge, one line per entry.
func labelText(label ast.TaggedValue, attrs []ast.TaggedValue) string {
	parts := make([]string, 0, 1+len(attrs))
	parts = append(parts, label.String())
	for _, a := range attrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, "\n")
}
