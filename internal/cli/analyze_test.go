package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/logweave/logweave/pkg/ast"
	"github.com/logweave/logweave/pkg/export"
	"github.com/logweave/logweave/pkg/graph"
)

const timelineDoc = `[
  {"timestamp": 1, "data_type": "syslog:line", "message": "a", "display_name": "/var/log/syslog"},
  {"timestamp": 2, "data_type": "syslog:line", "message": "b", "display_name": "/var/log/syslog"}
]`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunAnalyzeDotOutput(t *testing.T) {
	in := writeTemp(t, "timeline.json", timelineDoc)
	out := filepath.Join(t.TempDir(), "graph.dot")

	opts := &analyzeOpts{format: formatDot, output: out}
	if err := runAnalyze(context.Background(), opts, in, plasoBuilder(false)); err != nil {
		t.Fatalf("runAnalyze: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "digraph logweave {") {
		t.Errorf("output is not DOT:\n%s", data)
	}
}

func TestRunAnalyzeGraphDefOutput(t *testing.T) {
	in := writeTemp(t, "timeline.json", timelineDoc)
	out := filepath.Join(t.TempDir(), "graph.json")

	opts := &analyzeOpts{format: formatGraphDef, output: out}
	if err := runAnalyze(context.Background(), opts, in, plasoBuilder(false)); err != nil {
		t.Fatalf("runAnalyze: %v", err)
	}

	def, err := export.ReadGraphDefFile(out)
	if err != nil {
		t.Fatalf("ReadGraphDefFile: %v", err)
	}
	// Two events plus the shared file node.
	if len(def.Nodes) != 3 {
		t.Errorf("exported %d nodes, want 3", len(def.Nodes))
	}
}

func TestRunAnalyzeUnknownFormat(t *testing.T) {
	in := writeTemp(t, "timeline.json", timelineDoc)
	opts := &analyzeOpts{format: "yaml"}
	err := runAnalyze(context.Background(), opts, in, plasoBuilder(false))
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("err = %v, want unknown format", err)
	}
}

func TestRunAnalyzeMissingInput(t *testing.T) {
	opts := &analyzeOpts{format: formatDot}
	err := runAnalyze(context.Background(), opts, filepath.Join(t.TempDir(), "nope.json"), plasoBuilder(false))
	if err == nil {
		t.Error("expected error for missing input file")
	}
}

func TestDeleteByName(t *testing.T) {
	g := graph.New()
	g.Initialize(graph.Schemas{
		NodeTypes: map[string]ast.Type{"num": ast.IntType()},
		EdgeTypes: map[string]ast.Type{"link": ast.StringType()},
		Default:   ast.StringType(),
	})
	a, _ := g.FindOrAddNode(ast.TaggedValue{Tag: "num", Value: ast.NewInt(0)})
	b, _ := g.FindOrAddNode(ast.TaggedValue{Tag: "num", Value: ast.NewInt(1)})
	if _, err := g.AddEdge(a, b, ast.TaggedValue{Tag: "link", Value: ast.NewString("next")}); err != nil {
		t.Fatal(err)
	}

	got := deleteByName(g, []string{export.NodeName(g.NodeLabel(b)), "num/999"})
	if got.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", got.NodeCount())
	}
	if got.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", got.EdgeCount())
	}
	// The input graph is untouched.
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("input graph mutated: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
}

// Deleting by name must hit exactly the named node, even when another
// node's value differs only in separator characters.
func TestDeleteByNameSeparatorLookalikes(t *testing.T) {
	g := graph.New()
	g.Initialize(graph.Schemas{
		NodeTypes: map[string]ast.Type{"file": ast.StringType()},
		Default:   ast.StringType(),
	})
	slash, _ := g.FindOrAddNode(ast.TaggedValue{Tag: "file", Value: ast.NewString("x/y")})
	underscore, _ := g.FindOrAddNode(ast.TaggedValue{Tag: "file", Value: ast.NewString("x_y")})

	got := deleteByName(g, []string{export.NodeName(g.NodeLabel(slash))})
	if got.NodeCount() != 1 {
		t.Fatalf("NodeCount() = %d, want 1", got.NodeCount())
	}
	want := export.NodeName(g.NodeLabel(underscore))
	if name := export.NodeName(got.NodeLabel(got.Nodes()[0])); name != want {
		t.Errorf("surviving node = %q, want %q", name, want)
	}
}

func TestBuilderStats(t *testing.T) {
	_, stats, err := buildAccess(context.Background(), strings.NewReader("1000,alice,a@b\n"))
	if err != nil {
		t.Fatalf("buildAccess: %v", err)
	}
	if !strings.Contains(stats, "1 rows") {
		t.Errorf("stats = %q", stats)
	}

	_, stats, err = buildCurio(context.Background(), strings.NewReader(`{"a": {}}`))
	if err != nil {
		t.Fatalf("buildCurio: %v", err)
	}
	if !strings.Contains(stats, "1 streams") {
		t.Errorf("stats = %q", stats)
	}
}
