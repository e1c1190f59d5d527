package access

import (
	"strings"
	"testing"

	"github.com/logweave/logweave/pkg/ast"
	"github.com/logweave/logweave/pkg/errors"
)

const rows = `time,user,account
1000,alice,alice@example.com
2000,alice,shared@example.com
3000,bob,shared@example.com
4000,alice,shared@example.com
`

func build(t *testing.T, input string) *Analyzer {
	t.Helper()
	a := New(Options{})
	if err := a.Initialize(strings.NewReader(input)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := a.BuildAccessGraph(); err != nil {
		t.Fatalf("BuildAccessGraph: %v", err)
	}
	return a
}

func TestBuildAccessGraph(t *testing.T) {
	a := build(t, rows)
	g := a.AccessGraph()

	// alice, bob, alice@example.com, shared@example.com.
	if g.NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4", g.NodeCount())
	}
	// One edge per row, never deduplicated.
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount() = %d, want 4", g.EdgeCount())
	}
	if a.NumRowsParsed() != 4 {
		t.Errorf("NumRowsParsed() = %d, want 4", a.NumRowsParsed())
	}

	shared, ok := g.FindNode(ast.TaggedValue{Tag: TagAccount, Value: ast.NewString("shared@example.com")})
	if !ok {
		t.Fatal("shared account node not found")
	}
	if got := len(g.EdgesInto(shared)); got != 3 {
		t.Errorf("shared account has %d incoming edges, want 3", got)
	}
}

func TestHeaderOptional(t *testing.T) {
	a := build(t, "1000,alice,alice@example.com\n")
	if a.NumRowsParsed() != 1 || a.NumMalformed() != 0 {
		t.Errorf("parsed %d malformed %d", a.NumRowsParsed(), a.NumMalformed())
	}
}

func TestMalformedRowsSkipped(t *testing.T) {
	input := `1000,alice,alice@example.com
oops,alice,alice@example.com
2000,,alice@example.com
3000,bob
4000,bob,shared@example.com
`
	a := build(t, input)
	if a.NumRowsParsed() != 2 {
		t.Errorf("NumRowsParsed() = %d, want 2", a.NumRowsParsed())
	}
	if a.NumMalformed() != 3 {
		t.Errorf("NumMalformed() = %d, want 3", a.NumMalformed())
	}
}

func TestMalformedBudgetExceeded(t *testing.T) {
	a := New(Options{MaxMalformed: 1})
	input := "1000,alice,a@b\nx,y\nz,w\n"
	if err := a.Initialize(strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}
	err := a.BuildAccessGraph()
	if !errors.Is(err, errors.ErrCodeInvalidRecord) {
		t.Errorf("err = %v, want INVALID_RECORD", err)
	}
}

func TestEmptyInputRejected(t *testing.T) {
	a := New(Options{})
	if err := a.Initialize(strings.NewReader("time,user,account\n")); err != nil {
		t.Fatal(err)
	}
	err := a.BuildAccessGraph()
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestEdgeTimesSurviveExport(t *testing.T) {
	a := build(t, rows)
	def := a.GraphDef()
	var times []string
	for _, n := range def.Nodes {
		for _, in := range n.Input {
			times = append(times, in.Attr["time"])
		}
	}
	if len(times) != 4 {
		t.Fatalf("exported %d edges, want 4", len(times))
	}
	want := map[string]bool{"1000": true, "2000": true, "3000": true, "4000": true}
	for _, ts := range times {
		if !want[ts] {
			t.Errorf("unexpected edge time %q", ts)
		}
	}
}
