package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/logweave/logweave/pkg/cache"
	"github.com/logweave/logweave/pkg/export"
	"github.com/logweave/logweave/pkg/graph"
)

// newServeCmd creates the serve command, which builds one graph at startup
// and serves its exports over HTTP.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <analyzer> <file>",
		Short: "Serve a graph's exports over HTTP",
		Long: `Build a graph from a log file and serve it over HTTP.

Endpoints:
  GET /graph.dot    DOT text
  GET /graph.json   interchange message
  GET /graph.svg    rendered image
  GET /healthz      liveness probe

Examples:
  logweave serve plaso timeline.json
  logweave serve access logins.csv --addr :9090`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"plaso", "curio", "access"},
		RunE: func(c *cobra.Command, args []string) error {
			return runServe(c.Context(), addr, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(ctx context.Context, addr, analyzer, path string) error {
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)
	if addr == "" {
		addr = cfg.Serve.Addr
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	build, err := builderFor(analyzer)
	if err != nil {
		return err
	}
	p := newProgress(logger)
	g, stats, err := build(ctx, f)
	if err != nil {
		return err
	}
	p.done("Parsed " + stats)

	c, err := openCache(ctx, cfg.Cache)
	if err != nil {
		printWarning("Render cache disabled: %v", err)
		c = cache.NewNullCache()
	}
	defer c.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(g, c, cfg.Cache.TTL()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// builderFor maps an analyzer name to its build function.
func builderFor(name string) (buildFunc, error) {
	switch name {
	case "plaso":
		return plasoBuilder(false), nil
	case "curio":
		return buildCurio, nil
	case "access":
		return buildAccess, nil
	default:
		return nil, fmt.Errorf("unknown analyzer %q (want plaso, curio, or access)", name)
	}
}

// newRouter builds the HTTP routes over an already built graph. The graph
// is never mutated after startup, so handlers read it without locking.
func newRouter(g *graph.Graph, c cache.Cache, ttl time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	dot := export.DotGraph(g)
	var def bytes.Buffer
	if err := export.WriteGraphDef(export.FromGraph(g), &def); err != nil {
		// FromGraph output always encodes; a failure here is a bug.
		panic(err)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	r.Get("/graph.dot", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = io.WriteString(w, dot)
	})

	r.Get("/graph.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(def.Bytes())
	})

	r.Get("/graph.svg", func(w http.ResponseWriter, req *http.Request) {
		key := cache.RenderKey(dot, renderSVG)
		if data, hit, err := c.Get(req.Context(), key); err == nil && hit {
			w.Header().Set("Content-Type", "image/svg+xml")
			_, _ = w.Write(data)
			return
		}
		data, err := export.RenderSVG(req.Context(), dot)
		if err != nil {
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		_ = c.Set(req.Context(), key, data, ttl)
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(data)
	})

	return r
}
