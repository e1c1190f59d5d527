// Package access builds an account-access graph from CSV access logs.
//
// Each input row records that a user touched an account at a point in time.
// Users and accounts become nodes; every row becomes its own access edge
// from the user to the account, so repeated accesses show up as edge
// multiplicity rather than being collapsed.
package access

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/logweave/logweave/pkg/ast"
	"github.com/logweave/logweave/pkg/check"
	"github.com/logweave/logweave/pkg/errors"
	"github.com/logweave/logweave/pkg/export"
	"github.com/logweave/logweave/pkg/graph"
)

// Node and edge tags used in the access graph.
const (
	TagUser    = "user"
	TagAccount = "account"
	TagAccess  = "access"
)

// numFields is the row shape: time, user, account.
const numFields = 3

// DefaultMaxMalformed is the number of malformed rows tolerated before a
// build is aborted.
const DefaultMaxMalformed = 100

// Options configures an access analyzer.
type Options struct {
	// MaxMalformed aborts the build when more than this many rows are
	// skipped. Zero means DefaultMaxMalformed.
	MaxMalformed int
}

// Analyzer builds and owns one access graph. Lifecycle:
// [Analyzer.Initialize], then [Analyzer.BuildAccessGraph], then the
// accessors; a failed step short-circuits everything after it.
type Analyzer struct {
	opts  Options
	input io.Reader
	g     *graph.Graph
	built bool

	numRows      int
	numMalformed int
}

// New creates an access analyzer with the given options.
func New(opts Options) *Analyzer {
	if opts.MaxMalformed <= 0 {
		opts.MaxMalformed = DefaultMaxMalformed
	}
	return &Analyzer{opts: opts}
}

// Initialize attaches the input. Returns INVALID_INPUT for a nil reader.
func (a *Analyzer) Initialize(r io.Reader) error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidInput, "access analyzer requires an input reader")
	}
	a.input = r
	return nil
}

// accessType returns the composite type of access edge labels.
func accessType() ast.Type {
	t, err := ast.CompositeType(map[string]ast.Type{
		"time": ast.IntType(),
	})
	check.Thatf(err == nil, "access: edge type: %v", err)
	return t
}

func schemas() graph.Schemas {
	return graph.Schemas{
		NodeTypes: map[string]ast.Type{
			TagUser:    ast.StringType(),
			TagAccount: ast.StringType(),
		},
		EdgeTypes: map[string]ast.Type{
			TagAccess: accessType(),
		},
		Default: ast.StringType(),
	}
}

// BuildAccessGraph parses the CSV input and populates the graph. A leading
// header row is recognized by a non-numeric time field and skipped without
// counting as malformed. Rows with the wrong field count, a bad timestamp,
// or an empty user or account are skipped up to the malformed budget; an
// input yielding no valid row at all is an error.
func (a *Analyzer) BuildAccessGraph() error {
	if a.input == nil {
		return errors.New(errors.ErrCodeInvalidInput, "access analyzer not initialized")
	}

	a.g = graph.New()
	a.g.Initialize(schemas())

	r := csv.NewReader(a.input)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "read CSV")
		}

		ok := len(row) == numFields
		var when int64
		if ok {
			when, err = strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
			if err != nil {
				if first {
					first = false
					continue
				}
				ok = false
			}
		}
		first = false
		if !ok || row[1] == "" || row[2] == "" {
			a.numMalformed++
			if a.numMalformed > a.opts.MaxMalformed {
				return errors.New(errors.ErrCodeInvalidRecord, "more than %d malformed rows", a.opts.MaxMalformed)
			}
			continue
		}

		if err := a.addAccess(when, row[1], row[2]); err != nil {
			return err
		}
		a.numRows++
	}

	if a.numRows == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "input contains no valid access rows")
	}
	a.built = true
	return nil
}

func (a *Analyzer) addAccess(when int64, user, account string) error {
	u, err := a.g.FindOrAddNode(ast.TaggedValue{Tag: TagUser, Value: ast.NewString(user)})
	if err != nil {
		return err
	}
	acc, err := a.g.FindOrAddNode(ast.TaggedValue{Tag: TagAccount, Value: ast.NewString(account)})
	if err != nil {
		return err
	}
	_, err = a.g.AddEdge(u, acc, ast.TaggedValue{Tag: TagAccess, Value: ast.NewComposite(map[string]ast.Value{
		"time": ast.NewInt(when),
	})})
	return err
}

// AccessGraph returns the built graph. Calling it before a successful build
// is a contract violation.
func (a *Analyzer) AccessGraph() *graph.Graph {
	check.That(a.built, "access: AccessGraph before a successful build")
	return a.g
}

// AccessGraphAsDot renders the built graph as Graphviz DOT text.
func (a *Analyzer) AccessGraphAsDot() string {
	return export.DotGraph(a.AccessGraph())
}

// GraphDef returns the interchange message for the built graph.
func (a *Analyzer) GraphDef() export.GraphDef {
	return export.FromGraph(a.AccessGraph())
}

// NumRowsParsed returns the number of rows turned into edges.
func (a *Analyzer) NumRowsParsed() int { return a.numRows }

// NumMalformed returns the number of rows skipped as malformed.
func (a *Analyzer) NumMalformed() int { return a.numMalformed }
