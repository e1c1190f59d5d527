package plaso

import (
	"strings"
	"testing"

	"github.com/logweave/logweave/pkg/errors"
)

const docInput = `{
  "event1": {"timestamp": 1000, "data_type": "fs:stat", "message": "stat", "display_name": "/var/log/auth.log"},
  "event2": {"timestamp": 2000, "data_type": "fs:stat", "message": "stat", "display_name": "/var/log/auth.log"},
  "event3": {"timestamp": 1000, "data_type": "fs:stat", "message": "stat", "display_name": "/var/log/auth.log"}
}`

func build(t *testing.T, input string, opts Options) *Analyzer {
	t.Helper()
	a := New(opts)
	if err := a.Initialize(strings.NewReader(input)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := a.BuildTimelineGraph(); err != nil {
		t.Fatalf("BuildTimelineGraph: %v", err)
	}
	return a
}

func TestBuildFromDocument(t *testing.T) {
	a := build(t, docInput, Options{})

	// event1 and event3 are identical records and collapse to one node.
	// Two event nodes plus the shared file node.
	g := a.TimelineGraph()
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", g.NodeCount())
	}
	// Every record still contributes its own touches edge.
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
	}
	if a.NumEventsParsed() != 3 || a.NumMalformed() != 0 {
		t.Errorf("parsed %d malformed %d", a.NumEventsParsed(), a.NumMalformed())
	}
}

func TestBuildFromArrayDocument(t *testing.T) {
	input := `[
  {"timestamp": 1, "data_type": "syslog:line", "message": "a"},
  {"timestamp": 2, "data_type": "syslog:line", "message": "b"}
]`
	a := build(t, input, Options{})
	if got := a.TimelineGraph().NodeCount(); got != 2 {
		t.Errorf("NodeCount() = %d, want 2", got)
	}
}

func TestBuildFromStream(t *testing.T) {
	input := `{"timestamp": 1, "data_type": "syslog:line", "message": "a", "display_name": "/var/log/syslog"}
{"timestamp": 2, "data_type": "syslog:line", "message": "b", "display_name": "/var/log/syslog"}
`
	a := build(t, input, Options{Stream: true})
	g := a.TimelineGraph()
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
}

func TestMalformedRecordsSkipped(t *testing.T) {
	input := `[
  {"timestamp": 1, "data_type": "syslog:line", "message": "ok"},
  {"timestamp": 0, "data_type": "syslog:line", "message": "no timestamp"},
  {"timestamp": 2, "message": "no data type"}
]`
	a := build(t, input, Options{})
	if a.NumEventsParsed() != 1 {
		t.Errorf("NumEventsParsed() = %d, want 1", a.NumEventsParsed())
	}
	if a.NumMalformed() != 2 {
		t.Errorf("NumMalformed() = %d, want 2", a.NumMalformed())
	}
}

func TestMalformedBudgetExceeded(t *testing.T) {
	input := `[
  {"timestamp": 1, "data_type": "syslog:line"},
  {"timestamp": 0},
  {"timestamp": 0}
]`
	a := New(Options{MaxMalformed: 1})
	if err := a.Initialize(strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}
	err := a.BuildTimelineGraph()
	if !errors.Is(err, errors.ErrCodeInvalidRecord) {
		t.Errorf("err = %v, want INVALID_RECORD", err)
	}
}

func TestEmptyInputRejected(t *testing.T) {
	a := New(Options{})
	if err := a.Initialize(strings.NewReader("[]")); err != nil {
		t.Fatal(err)
	}
	err := a.BuildTimelineGraph()
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestBadJSONRejected(t *testing.T) {
	a := New(Options{})
	if err := a.Initialize(strings.NewReader("not json")); err != nil {
		t.Fatal(err)
	}
	err := a.BuildTimelineGraph()
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestDotExportStable(t *testing.T) {
	a := build(t, docInput, Options{})
	b := build(t, docInput, Options{})
	if a.TimelineGraphAsDot() != b.TimelineGraphAsDot() {
		t.Error("two builds of the same document differ in DOT output")
	}
	if !strings.Contains(a.TimelineGraphAsDot(), "fs:stat") {
		t.Errorf("DOT output missing event data:\n%s", a.TimelineGraphAsDot())
	}
}

func TestGraphDefNames(t *testing.T) {
	a := build(t, docInput, Options{})
	def := a.GraphDef()
	var sawFile bool
	for _, n := range def.Nodes {
		if strings.HasPrefix(n.Name, TagFile+"/") {
			sawFile = true
			if len(n.Input) != 3 {
				t.Errorf("file node inputs = %d, want 3", len(n.Input))
			}
		}
	}
	if !sawFile {
		t.Error("no file node in GraphDef")
	}
}
