package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/logweave/logweave/pkg/cache"
	"github.com/logweave/logweave/pkg/export"
)

const (
	renderSVG = "svg"
	renderPNG = "png"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file path (derived from input if empty)
	format  string // output format: "svg" or "png"
	refresh bool   // bypass the render cache
}

// newRenderCmd creates the render command, which turns DOT text produced by
// analyze into an image. Results are cached by a content hash of the DOT
// text, so re-rendering an unchanged graph is a cache hit.
func newRenderCmd() *cobra.Command {
	opts := renderOpts{format: renderSVG}

	cmd := &cobra.Command{
		Use:   "render <dot-file>",
		Short: "Render DOT text to an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runRender(c.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (input name with new extension if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), png")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the render cache")

	return cmd
}

func runRender(ctx context.Context, opts *renderOpts, path string) error {
	logger := loggerFromContext(ctx)

	if opts.format != renderSVG && opts.format != renderPNG {
		return fmt.Errorf("unknown format %q (want %s or %s)", opts.format, renderSVG, renderPNG)
	}

	dot, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	cfg := configFromContext(ctx)
	c, err := openCache(ctx, cfg.Cache)
	if err != nil {
		printWarning("Render cache disabled: %v", err)
		c = cache.NewNullCache()
	}
	defer c.Close()

	key := cache.RenderKey(string(dot), opts.format)
	var data []byte
	cached := false
	if !opts.refresh {
		data, cached, err = c.Get(ctx, key)
		if err != nil {
			logger.Warnf("Cache read failed: %v", err)
		}
	}

	if !cached {
		s := newSpinnerWithContext(ctx, "Rendering graph...")
		s.Start()
		data, err = renderDot(ctx, string(dot), opts.format)
		s.Stop()
		if err != nil {
			return err
		}
		if err := c.Set(ctx, key, data, cfg.Cache.TTL()); err != nil {
			logger.Warnf("Cache write failed: %v", err)
		}
	} else {
		logger.Debug("render cache hit", "key", key)
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(path, ".dot") + "." + opts.format
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	printFile(out)
	printStats(0, 0, cached)
	return nil
}

func renderDot(ctx context.Context, dot, format string) ([]byte, error) {
	if format == renderPNG {
		return export.RenderPNG(ctx, dot)
	}
	return export.RenderSVG(ctx, dot)
}

// openCache builds the cache backend selected by the config.
func openCache(ctx context.Context, cfg CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "", "file":
		return cache.NewFileCache(cfg.Dir)
	case "redis":
		return cache.NewRedisCache(ctx, cfg.RedisAddr)
	case "none":
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
