package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/logweave/logweave/pkg/ast"
	"github.com/logweave/logweave/pkg/graph"
)

const (
	// PathSeparator joins the segments of a hierarchical node name.
	// Downstream viewers group nodes by shared name prefixes, so a node
	// named "event/..." sorts under the "event" group without any explicit
	// group membership.
	PathSeparator = "/"

	// FlagPrefix marks presence-only attributes. The value of a key
	// beginning with this prefix is ignored by readers; the key being
	// present signals the property.
	FlagPrefix = "_"
)

// GraphDef is the structured graph-interchange message: one entry per graph
// node, each listing its incoming edges. It is the stable format consumed
// by viewers and by `logweave view`.
type GraphDef struct {
	Nodes []NodeDef `json:"nodes"`
}

// NodeDef describes one node: a hierarchical name, a string attribute map
// derived from the node's label and attributes, and the incoming edges in
// the store's per-target insertion order.
type NodeDef struct {
	Name  string            `json:"name"`
	Attr  map[string]string `json:"attr,omitempty"`
	Input []InputDef        `json:"input,omitempty"`
}

// InputDef describes one incoming edge by its source node name and the
// edge's attribute map.
type InputDef struct {
	Source string            `json:"source"`
	Attr   map[string]string `json:"attr,omitempty"`
}

// FromGraph builds the interchange message for g. The output depends only
// on the graph's content and iteration order, so an unchanged graph always
// produces the same message.
func FromGraph(g *graph.Graph) GraphDef {
	names := make(map[graph.NodeID]string, g.NodeCount())
	for _, id := range g.Nodes() {
		names[id] = NodeName(g.NodeLabel(id))
	}

	def := GraphDef{Nodes: make([]NodeDef, 0, g.NodeCount())}
	for _, id := range g.Nodes() {
		nd := NodeDef{
			Name: names[id],
			Attr: attrMap(g.NodeLabel(id), g.NodeAttributes(id)),
		}
		for _, eid := range g.EdgesInto(id) {
			nd.Input = append(nd.Input, InputDef{
				Source: names[g.EdgeSource(eid)],
				Attr:   attrMap(g.EdgeLabel(eid), g.EdgeAttributes(eid)),
			})
		}
		def.Nodes = append(def.Nodes, nd)
	}
	return def
}

// NodeName derives the hierarchical name of a node from its label:
// the tag followed by the label's canonical value, joined by
// [PathSeparator]. Separator characters inside the rendered value are
// percent-encoded so they cannot introduce spurious hierarchy levels. The
// encoding is injective ("%" itself is escaped first), so distinct labels
// produce distinct names and label deduplication in the store guarantees
// the result is unique per node.
func NodeName(label ast.TaggedValue) string {
	value := strings.ReplaceAll(label.Value.String(), "%", "%25")
	value = strings.ReplaceAll(value, PathSeparator, "%2F")
	return label.Tag + PathSeparator + value
}

// attrMap flattens a label and its attributes into a string attribute map.
// Composite labels contribute one entry per field; other labels contribute
// a single "label" entry. True boolean fields and attributes are emitted as
// presence flags under a [FlagPrefix]ed key; false ones are omitted.
func attrMap(label ast.TaggedValue, attrs []ast.TaggedValue) map[string]string {
	m := make(map[string]string)
	if label.Value.Kind() == ast.KindComposite {
		for _, name := range label.Value.FieldNames() {
			f, _ := label.Value.Field(name)
			putAttr(m, name, f)
		}
	} else if !label.Value.IsNull() {
		m["label"] = label.Value.String()
	}
	for _, a := range attrs {
		putAttr(m, a.Tag, a.Value)
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func putAttr(m map[string]string, name string, v ast.Value) {
	if v.Kind() == ast.KindBool {
		if v.Bool() {
			m[FlagPrefix+name] = ""
		}
		return
	}
	m[name] = v.String()
}

// WriteGraphDef encodes def as indented JSON to w. Map keys are sorted by
// the encoder, so the byte output is deterministic.
func WriteGraphDef(def GraphDef, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(def); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGraphDef decodes an interchange message from r.
func ReadGraphDef(r io.Reader) (GraphDef, error) {
	var def GraphDef
	if err := json.NewDecoder(r).Decode(&def); err != nil {
		return GraphDef{}, fmt.Errorf("decode: %w", err)
	}
	return def, nil
}

// ReadGraphDefFile reads an interchange message from the file at path.
func ReadGraphDefFile(path string) (GraphDef, error) {
	f, err := os.Open(path)
	if err != nil {
		return GraphDef{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraphDef(f)
}
