// Package plaso builds a labeled graph from forensic timeline events.
//
// The input is a Plaso timeline export, either a single JSON document (an
// array of event records, or an object keyed by event id) or a JSON stream
// with one record per line. Every record yields an event node; records that
// name a file additionally yield a file node and a touches edge from the
// event to the file. Identical records collapse to one node through the
// store's label deduplication.
package plaso

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

// Node and edge tags used in the timeline graph.
const (
	TagEvent   = "event"
	TagFile    = "file"
	TagTouches = "touches"
)

// DefaultMaxMalformed is the number of malformed records tolerated before a
// build is aborted.
const DefaultMaxMalformed = 100

// Options configures a timeline analyzer.
type Options struct {
	// Stream selects JSON stream input (one record per line) instead of a
	// single JSON document.
	Stream bool

	// MaxMalformed aborts the build when more than this many records are
	// skipped. Zero means DefaultMaxMalformed.
	MaxMalformed int
}

// record is the subset of a Plaso event used to build the graph.
type record struct {
	Timestamp   int64  `json:"timestamp"`
	DataType    string `json:"data_type"`
	Message     string `json:"message"`
	DisplayName string `json:"display_name"`
}

func (r record) malformed() bool {
	return r.DataType == "" || r.Timestamp <= 0
}

// Analyzer builds and owns one timeline graph. Lifecycle: [Analyzer.Initialize],
// then [Analyzer.BuildTimelineGraph], then the accessors; a failed step
// short-circuits everything after it.
type Analyzer struct {
	opts  Options
	input io.Reader
	g     *graph.Graph
	built bool

	numParsed    int
	numMalformed int
}

// New creates a timeline analyzer with the given options.
func New(opts Options) *Analyzer {
	if opts.MaxMalformed <= 0 {
		opts.MaxMalformed = DefaultMaxMalformed
	}
	return &Analyzer{opts: opts}
}

// Initialize attaches the input. Returns INVALID_INPUT for a nil reader.
func (a *Analyzer) Initialize(r io.Reader) error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidInput, "timeline analyzer requires an input reader")
	}
	a.input = r
	return nil
}

// eventType returns the composite type of event node labels.
func eventType() ast.Type {
	t, err := ast.CompositeType(map[string]ast.Type{
		"timestamp": ast.IntType(),
		"data_type": ast.StringType(),
		"message":   ast.StringType(),
	})
	check.Thatf(err == nil, "plaso: event type: %v", err)
	return t
}

func schemas() graph.Schemas {
	return graph.Schemas{
		NodeTypes: map[string]ast.Type{
			TagEvent: eventType(),
			TagFile:  ast.StringType(),
		},
		EdgeTypes: map[string]ast.Type{
			TagTouches: ast.NullableType(ast.StringType()),
		},
		Default: ast.StringType(),
	}
}

// BuildTimelineGraph parses the input and populates the graph. Records
// missing a data type or timestamp are skipped up to the malformed budget;
// an input yielding no valid event at all is an error.
func (a *Analyzer) BuildTimelineGraph() error {
	if a.input == nil {
		return errors.New(errors.ErrCodeInvalidInput, "timeline analyzer not initialized")
	}

	a.g = graph.New()
	a.g.Initialize(schemas())

	records, err := a.decode()
	if err != nil {
		return err
	}

	for _, rec := range records {
		if rec.malformed() {
			a.numMalformed++
			if a.numMalformed > a.opts.MaxMalformed {
				return errors.New(errors.ErrCodeInvalidRecord, "more than %d malformed records", a.opts.MaxMalformed)
			}
			continue
		}
		if err := a.addEvent(rec); err != nil {
			return err
		}
		a.numParsed++
	}

	if a.numParsed == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "input contains no valid timeline events")
	}
	a.built = true
	return nil
}

// decode reads all records from the input in the configured mode.
func (a *Analyzer) decode() ([]record, error) {
	dec := json.NewDecoder(a.input)

	if a.opts.Stream {
		var records []record
		for dec.More() {
			var rec record
			if err := dec.Decode(&rec); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode JSON stream")
			}
			records = append(records, rec)
		}
		return records, nil
	}

	// A full document is either an array of records or an object keyed by
	// event id. Object keys are visited in sorted order so the resulting
	// graph, and therefore its export, does not depend on map iteration.
	var doc json.RawMessage
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode JSON document")
	}

	var list []record
	if err := json.Unmarshal(doc, &list); err == nil {
		return list, nil
	}

	var byID map[string]record
	if err := json.Unmarshal(doc, &byID); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "timeline document is neither an array nor an object of events")
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	records := make([]record, 0, len(byID))
	for _, id := range ids {
		records = append(records, byID[id])
	}
	return records, nil
}

func (a *Analyzer) addEvent(rec record) error {
	event, err := a.g.FindOrAddNode(ast.TaggedValue{Tag: TagEvent, Value: ast.NewComposite(map[string]ast.Value{
		"timestamp": ast.NewInt(rec.Timestamp),
		"data_type": ast.NewString(rec.DataType),
		"message":   ast.NewString(rec.Message),
	})})
	if err != nil {
		return err
	}
	if rec.DisplayName == "" {
		return nil
	}
	file, err := a.g.FindOrAddNode(ast.TaggedValue{Tag: TagFile, Value: ast.NewString(rec.DisplayName)})
	if err != nil {
		return err
	}
	_, err = a.g.AddEdge(event, file, ast.TaggedValue{Tag: TagTouches, Value: ast.NewNull()})
	return err
}

// TimelineGraph returns the built graph. Calling it before a successful
// build is a contract violation.
func (a *Analyzer) TimelineGraph() *graph.Graph {
	check.That(a.built, "plaso: TimelineGraph before a successful build")
	return a.g
}

// TimelineGraphAsDot renders the built graph as Graphviz DOT text.
func (a *Analyzer) TimelineGraphAsDot() string {
	return export.DotGraph(a.TimelineGraph())
}

// GraphDef returns the interchange message for the built graph.
func (a *Analyzer) GraphDef() export.GraphDef {
	return export.FromGraph(a.TimelineGraph())
}

// NumEventsParsed returns the number of records turned into graph nodes.
func (a *Analyzer) NumEventsParsed() int { return a.numParsed }

// NumMalformed returns the number of records skipped as malformed.
func (a *Analyzer) NumMalformed() int { return a.numMalformed }
