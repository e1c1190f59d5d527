package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/logweave/logweave/pkg/analyzers/access"
	"github.com/logweave/logweave/pkg/analyzers/curio"
	"github.com/logweave/logweave/pkg/analyzers/plaso"
	"github.com/logweave/logweave/pkg/export"
	"github.com/logweave/logweave/pkg/graph"
	"github.com/logweave/logweave/pkg/graph/transform"
)

const (
	formatDot      = "dot"
	formatGraphDef = "graphdef"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	stream       bool     // JSON stream input (plaso only)
	format       string   // output format: "dot" or "graphdef"
	output       string   // output file path (stdout if empty)
	deleteNodes  []string // node names to delete before export
	maxMalformed int      // malformed record budget (overrides config)
}

// newAnalyzeCmd creates the analyze command with one subcommand per input
// kind. Each subcommand reads a log file, builds the labeled graph, and
// writes it in the selected format.
func newAnalyzeCmd() *cobra.Command {
	opts := analyzeOpts{format: formatDot}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Build a labeled graph from a log file",
		Long: `Build a labeled graph from a log file and export it.

Examples:
  logweave analyze plaso timeline.json                # forensic timeline, DOT to stdout
  logweave analyze plaso events.jsonl --stream        # one JSON record per line
  logweave analyze access logins.csv -f graphdef -o g.json
  logweave analyze curio catalog.json --delete-node 'stream/"debug"'`,
	}

	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot (default), graphdef")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.PersistentFlags().StringArrayVar(&opts.deleteNodes, "delete-node", nil, "node name to delete before export (repeatable)")
	cmd.PersistentFlags().IntVar(&opts.maxMalformed, "max-malformed", 0, "malformed record budget (overrides config)")

	plasoCmd := &cobra.Command{
		Use:   "plaso <file>",
		Short: "Analyze a forensic timeline export",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runAnalyze(c.Context(), &opts, args[0], plasoBuilder(opts.stream))
		},
	}
	plasoCmd.Flags().BoolVar(&opts.stream, "stream", false, "read a JSON stream instead of a single document")

	curioCmd := &cobra.Command{
		Use:   "curio <file>",
		Short: "Analyze a stream dependency catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runAnalyze(c.Context(), &opts, args[0], buildCurio)
		},
	}

	accessCmd := &cobra.Command{
		Use:   "access <file>",
		Short: "Analyze an account-access CSV log",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runAnalyze(c.Context(), &opts, args[0], buildAccess)
		},
	}

	cmd.AddCommand(plasoCmd, curioCmd, accessCmd)
	return cmd
}

// buildFunc parses one input into a graph, returning a short stats line for
// the progress log.
type buildFunc func(ctx context.Context, r io.Reader) (*graph.Graph, string, error)

// plasoBuilder returns the timeline build function for the given input mode.
func plasoBuilder(stream bool) buildFunc {
	return func(ctx context.Context, r io.Reader) (*graph.Graph, string, error) {
		a := plaso.New(plaso.Options{Stream: stream, MaxMalformed: configFromContext(ctx).Analyze.MaxMalformed})
		if err := a.Initialize(r); err != nil {
			return nil, "", err
		}
		if err := a.BuildTimelineGraph(); err != nil {
			return nil, "", err
		}
		stats := fmt.Sprintf("%d events, %d malformed", a.NumEventsParsed(), a.NumMalformed())
		return a.TimelineGraph(), stats, nil
	}
}

func buildCurio(ctx context.Context, r io.Reader) (*graph.Graph, string, error) {
	a := curio.New(curio.Options{MaxMalformed: configFromContext(ctx).Analyze.MaxMalformed})
	if err := a.Initialize(r); err != nil {
		return nil, "", err
	}
	if err := a.BuildDependencyGraph(); err != nil {
		return nil, "", err
	}
	stats := fmt.Sprintf("%d streams, %d malformed", a.NumStreamsParsed(), a.NumMalformed())
	return a.DependencyGraph(), stats, nil
}

func buildAccess(ctx context.Context, r io.Reader) (*graph.Graph, string, error) {
	a := access.New(access.Options{MaxMalformed: configFromContext(ctx).Analyze.MaxMalformed})
	if err := a.Initialize(r); err != nil {
		return nil, "", err
	}
	if err := a.BuildAccessGraph(); err != nil {
		return nil, "", err
	}
	stats := fmt.Sprintf("%d rows, %d malformed", a.NumRowsParsed(), a.NumMalformed())
	return a.AccessGraph(), stats, nil
}

// runAnalyze is the shared body of the analyze subcommands: open the input,
// build the graph, apply any requested node deletions, export.
func runAnalyze(ctx context.Context, opts *analyzeOpts, path string, build buildFunc) error {
	logger := loggerFromContext(ctx)
	logger.Debug("starting analysis", "run", uuid.NewString()[:8], "input", path)

	if opts.format != formatDot && opts.format != formatGraphDef {
		return fmt.Errorf("unknown format %q (want %s or %s)", opts.format, formatDot, formatGraphDef)
	}

	// Flags win over the config file.
	if opts.maxMalformed > 0 {
		cfg := configFromContext(ctx)
		cfg.Analyze.MaxMalformed = opts.maxMalformed
		ctx = withConfig(ctx, cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p := newProgress(logger)
	g, stats, err := build(ctx, f)
	if err != nil {
		return err
	}
	p.done("Parsed " + stats)

	if len(opts.deleteNodes) > 0 {
		g = deleteByName(g, opts.deleteNodes)
		logger.Debug("deleted nodes", "count", len(opts.deleteNodes))
	}

	out, closeOut, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer closeOut()

	switch opts.format {
	case formatDot:
		if _, err := io.WriteString(out, export.DotGraph(g)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	case formatGraphDef:
		if err := export.WriteGraphDef(export.FromGraph(g), out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if opts.output != "" {
		printFile(opts.output)
	}
	printStats(g.NodeCount(), g.EdgeCount(), false)
	return nil
}

// deleteByName resolves exported node names to ids and returns a new graph
// without them. Names that match no node are ignored, matching the
// transformer's treatment of unknown ids.
func deleteByName(g *graph.Graph, names []string) *graph.Graph {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var ids []graph.NodeID
	for _, id := range g.Nodes() {
		if want[export.NodeName(g.NodeLabel(id))] {
			ids = append(ids, id)
		}
	}
	return transform.DeleteNodes(g, ids)
}

// openOutput returns a writer for path, or stdout when path is empty.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
