package graph

import (
	"maps"
	"slices"

	"github.com/logweave/logweave/pkg/ast"
	"github.com/logweave/logweave/pkg/check"
	"github.com/logweave/logweave/pkg/errors"
)

// NodeID is an opaque handle to a node, densely assigned in insertion order
// and stable for the lifetime of the graph that issued it. Using a NodeID
// against a different graph instance is a contract violation and terminates
// the process.
type NodeID int

// EdgeID is an opaque handle to an edge, assigned in insertion order.
type EdgeID int

// Schemas declares the recognized node and edge tags and the types their
// label values must conform to. Default is used to type-check any tag not
// present in the corresponding map, which lets a schema be declared loosely
// and grow by convention at the tag granularity.
type Schemas struct {
	NodeTypes     map[string]ast.Type
	NodeAttrTypes map[string]ast.Type
	EdgeTypes     map[string]ast.Type
	EdgeAttrTypes map[string]ast.Type
	Default       ast.Type
}

func (s Schemas) clone() Schemas {
	return Schemas{
		NodeTypes:     maps.Clone(s.NodeTypes),
		NodeAttrTypes: maps.Clone(s.NodeAttrTypes),
		EdgeTypes:     maps.Clone(s.EdgeTypes),
		EdgeAttrTypes: maps.Clone(s.EdgeAttrTypes),
		Default:       s.Default,
	}
}

type node struct {
	label ast.TaggedValue
	attrs []ast.TaggedValue
}

type edge struct {
	src   NodeID
	dst   NodeID
	label ast.TaggedValue
	attrs []ast.TaggedValue
}

// Graph is the canonical labeled graph store. The zero value is not usable;
// create with [New] and install schemas with [Graph.Initialize] before any
// node or edge operation.
type Graph struct {
	schemas     Schemas
	initialized bool
	nodes       []node
	index       map[string]NodeID // canonical label key -> node id
	edges       []edge
	incoming    map[NodeID][]EdgeID // target id -> edge ids in insertion order
}

// New creates an empty, uninitialized graph.
func New() *Graph {
	return &Graph{
		index:    make(map[string]NodeID),
		incoming: make(map[NodeID][]EdgeID),
	}
}

// Initialize installs the node and edge schemas. It must be called exactly
// once before any node or edge operation; calling it again, or with an
// invalid default type, terminates the process.
func (g *Graph) Initialize(s Schemas) {
	check.That(!g.initialized, "graph: Initialize called on an initialized graph")
	check.That(s.Default.IsValid(), "graph: Initialize requires a valid default type")
	g.schemas = s.clone()
	g.initialized = true
}

// Schemas returns a copy of the installed schemas.
func (g *Graph) Schemas() Schemas {
	g.requireInitialized()
	return g.schemas.clone()
}

func (g *Graph) requireInitialized() {
	check.That(g.initialized, "graph: operation on an uninitialized graph")
}

func (g *Graph) requireNode(id NodeID) {
	check.Thatf(id >= 0 && int(id) < len(g.nodes), "graph: node id %d out of range (graph has %d nodes)", id, len(g.nodes))
}

func (g *Graph) requireEdge(id EdgeID) {
	check.Thatf(id >= 0 && int(id) < len(g.edges), "graph: edge id %d out of range (graph has %d edges)", id, len(g.edges))
}

// typeFor resolves the schema type for a tag, falling back to the default
// type when the tag is not registered.
func (g *Graph) typeFor(tag string, schema map[string]ast.Type) ast.Type {
	if t, ok := schema[tag]; ok {
		return t
	}
	return g.schemas.Default
}

func (g *Graph) checkLabel(label ast.TaggedValue, schema map[string]ast.Type, what string) error {
	if err := ast.Check(g.typeFor(label.Tag, schema), label.Value); err != nil {
		return errors.Wrap(errors.ErrCodeSchemaViolation, err, "%s label %q", what, label.Tag)
	}
	return nil
}

// FindOrAddNode returns the id of the node labeled with label, adding the
// node if no structurally equal label exists. The label is checked against
// the node schema; a failing check is reported as a recoverable
// SCHEMA_VIOLATION error and leaves the graph unchanged.
func (g *Graph) FindOrAddNode(label ast.TaggedValue) (NodeID, error) {
	g.requireInitialized()
	if err := g.checkLabel(label, g.schemas.NodeTypes, "node"); err != nil {
		return 0, err
	}
	key := label.Key()
	if id, ok := g.index[key]; ok {
		return id, nil
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{label: label})
	g.index[key] = id
	return id, nil
}

// FindNode returns the id of the node labeled with a label structurally
// equal to label, without adding anything.
func (g *Graph) FindNode(label ast.TaggedValue) (NodeID, bool) {
	g.requireInitialized()
	id, ok := g.index[label.Key()]
	return id, ok
}

// AddEdge adds a directed edge from src to dst carrying label and returns
// its id. The label is checked against the edge schema (recoverable
// SCHEMA_VIOLATION on failure). Edges are never deduplicated: every call
// creates a new edge, so repeated events accumulate as multiplicity.
// Endpoints that are not ids of this graph terminate the process.
func (g *Graph) AddEdge(src, dst NodeID, label ast.TaggedValue) (EdgeID, error) {
	g.requireInitialized()
	g.requireNode(src)
	g.requireNode(dst)
	if err := g.checkLabel(label, g.schemas.EdgeTypes, "edge"); err != nil {
		return 0, err
	}
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, edge{src: src, dst: dst, label: label})
	g.incoming[dst] = append(g.incoming[dst], id)
	return id, nil
}

// SetNodeAttribute attaches an attribute to a node, checked against the
// node attribute schema. Attributes annotate a node without affecting its
// identity; repeated calls accumulate in call order.
func (g *Graph) SetNodeAttribute(id NodeID, attr ast.TaggedValue) error {
	g.requireInitialized()
	g.requireNode(id)
	if err := g.checkLabel(attr, g.schemas.NodeAttrTypes, "node attribute"); err != nil {
		return err
	}
	g.nodes[id].attrs = append(g.nodes[id].attrs, attr)
	return nil
}

// SetEdgeAttribute attaches an attribute to an edge, checked against the
// edge attribute schema.
func (g *Graph) SetEdgeAttribute(id EdgeID, attr ast.TaggedValue) error {
	g.requireInitialized()
	g.requireEdge(id)
	if err := g.checkLabel(attr, g.schemas.EdgeAttrTypes, "edge attribute"); err != nil {
		return err
	}
	g.edges[id].attrs = append(g.edges[id].attrs, attr)
	return nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// HasNode reports whether id names a node of this graph.
func (g *Graph) HasNode(id NodeID) bool { return id >= 0 && int(id) < len(g.nodes) }

// Nodes returns all node ids in insertion order.
func (g *Graph) Nodes() []NodeID {
	ids := make([]NodeID, len(g.nodes))
	for i := range g.nodes {
		ids[i] = NodeID(i)
	}
	return ids
}

// NodeLabel returns the label of the node.
func (g *Graph) NodeLabel(id NodeID) ast.TaggedValue {
	g.requireNode(id)
	return g.nodes[id].label
}

// NodeAttributes returns the attributes attached to the node, in the order
// they were set. The returned slice is a copy.
func (g *Graph) NodeAttributes(id NodeID) []ast.TaggedValue {
	g.requireNode(id)
	return slices.Clone(g.nodes[id].attrs)
}

// EdgesInto returns the ids of edges whose target is id, in insertion
// order. The returned slice is a copy.
func (g *Graph) EdgesInto(id NodeID) []EdgeID {
	g.requireNode(id)
	return slices.Clone(g.incoming[id])
}

// EdgeSource returns the source node of the edge.
func (g *Graph) EdgeSource(id EdgeID) NodeID {
	g.requireEdge(id)
	return g.edges[id].src
}

// EdgeTarget returns the target node of the edge.
func (g *Graph) EdgeTarget(id EdgeID) NodeID {
	g.requireEdge(id)
	return g.edges[id].dst
}

// EdgeLabel returns the label of the edge.
func (g *Graph) EdgeLabel(id EdgeID) ast.TaggedValue {
	g.requireEdge(id)
	return g.edges[id].label
}

// EdgeAttributes returns the attributes attached to the edge, in the order
// they were set. The returned slice is a copy.
func (g *Graph) EdgeAttributes(id EdgeID) []ast.TaggedValue {
	g.requireEdge(id)
	return slices.Clone(g.edges[id].attrs)
}
