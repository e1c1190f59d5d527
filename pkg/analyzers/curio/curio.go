// Package curio builds a dependency graph from a stream catalog.
//
// The input is a JSON object mapping stream names to stream descriptions;
// a description may nest further streams under a "children" key. Every
// stream becomes a node and every parent/child relation becomes a depends
// edge from the parent to the child. A stream reachable through several
// parents is a single node with one incoming edge per parent.
package curio

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/logweave/logweave/pkg/ast"
	"github.com/logweave/logweave/pkg/check"
	"github.com/logweave/logweave/pkg/errors"
	"github.com/logweave/logweave/pkg/export"
	"github.com/logweave/logweave/pkg/graph"
)

// Node and edge tags used in the dependency graph.
const (
	TagStream  = "stream"
	TagDepends = "depends"
)

// childrenKey nests sub-streams inside a stream description.
const childrenKey = "children"

// DefaultMaxMalformed is the number of malformed catalog entries tolerated
// before a build is aborted.
const DefaultMaxMalformed = 100

// Options configures a dependency analyzer.
type Options struct {
	// MaxMalformed aborts the build when more than this many catalog
	// entries are skipped. Zero means DefaultMaxMalformed.
	MaxMalformed int
}

// Analyzer builds and owns one dependency graph. Lifecycle:
// [Analyzer.Initialize], then [Analyzer.BuildDependencyGraph], then the
// accessors; a failed step short-circuits everything after it.
type Analyzer struct {
	opts  Options
	doc   map[string]any
	g     *graph.Graph
	built bool

	numStreams   int
	numMalformed int
}

// New creates a dependency analyzer with the given options.
func New(opts Options) *Analyzer {
	if opts.MaxMalformed <= 0 {
		opts.MaxMalformed = DefaultMaxMalformed
	}
	return &Analyzer{opts: opts}
}

// Initialize decodes the catalog document from r. The top level must be a
// JSON object keyed by stream name.
func (a *Analyzer) Initialize(r io.Reader) error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidInput, "dependency analyzer requires an input reader")
	}
	var doc map[string]any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "catalog is not a JSON object")
	}
	a.doc = doc
	return nil
}

func schemas() graph.Schemas {
	return graph.Schemas{
		NodeTypes: map[string]ast.Type{
			TagStream: ast.StringType(),
		},
		EdgeTypes: map[string]ast.Type{
			TagDepends: ast.NullableType(ast.StringType()),
		},
		Default: ast.StringType(),
	}
}

// BuildDependencyGraph walks the catalog and populates the graph. Entries
// whose description is not an object are skipped up to the malformed
// budget; an empty catalog is an error.
func (a *Analyzer) BuildDependencyGraph() error {
	if a.doc == nil {
		return errors.New(errors.ErrCodeInvalidInput, "dependency analyzer not initialized")
	}
	if len(a.doc) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "catalog contains no streams")
	}

	a.g = graph.New()
	a.g.Initialize(schemas())

	// Top-level streams in sorted name order keeps the node enumeration,
	// and therefore every export, stable across builds.
	for _, name := range sortedKeys(a.doc) {
		if err := a.addStream(name, a.doc[name]); err != nil {
			return err
		}
	}
	a.built = true
	return nil
}

// addStream adds one stream node and recurses into its children, adding a
// depends edge from the stream to each child.
func (a *Analyzer) addStream(name string, desc any) error {
	fields, ok := desc.(map[string]any)
	if !ok {
		a.numMalformed++
		if a.numMalformed > a.opts.MaxMalformed {
			return errors.New(errors.ErrCodeInvalidRecord, "more than %d malformed catalog entries", a.opts.MaxMalformed)
		}
		return nil
	}

	node, err := a.g.FindOrAddNode(ast.TaggedValue{Tag: TagStream, Value: ast.NewString(name)})
	if err != nil {
		return err
	}
	a.numStreams++

	children, ok := fields[childrenKey].(map[string]any)
	if !ok {
		return nil
	}
	for _, child := range sortedKeys(children) {
		if err := a.addStream(child, children[child]); err != nil {
			return err
		}
		// A skipped malformed child has no node to point at.
		childNode, ok := a.g.FindNode(ast.TaggedValue{Tag: TagStream, Value: ast.NewString(child)})
		if !ok {
			continue
		}
		if _, err := a.g.AddEdge(node, childNode, ast.TaggedValue{Tag: TagDepends, Value: ast.NewNull()}); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DependencyGraph returns the built graph. Calling it before a successful
// build is a contract violation.
func (a *Analyzer) DependencyGraph() *graph.Graph {
	check.That(a.built, "curio: DependencyGraph before a successful build")
	return a.g
}

// DependencyGraphAsDot renders the built graph as Graphviz DOT text.
func (a *Analyzer) DependencyGraphAsDot() string {
	return export.DotGraph(a.DependencyGraph())
}

// GraphDef returns the interchange message for the built graph.
func (a *Analyzer) GraphDef() export.GraphDef {
	return export.FromGraph(a.DependencyGraph())
}

// NumStreamsParsed returns the number of stream entries turned into nodes,
// counting a stream once per catalog occurrence.
func (a *Analyzer) NumStreamsParsed() int { return a.numStreams }

// NumMalformed returns the number of catalog entries skipped as malformed.
func (a *Analyzer) NumMalformed() int { return a.numMalformed }
