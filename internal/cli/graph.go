package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gpmworks/gpm/pkg/cache"
	"github.com/gpmworks/gpm/pkg/graph"
)

const (
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatJSON = "json"
)

type graphOptions struct {
	format   string
	output   string
	detailed bool
	noCache  bool
}

// svgCacheAge bounds how long rendered graphs are reused.
const svgCacheAge = 30 * 24 * time.Hour

// graphCommand exports the dependency graph.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOptions
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the dependency graph as DOT, SVG or JSON",
		Long: `Export the workspace dependency graph.

Missing packages are drawn dashed, redundant dependencies dotted and
packages with conflicted manifests in red.`,
		GroupID: groupWorkspace,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.open()
			if err != nil {
				return err
			}
			g, err := s.load(ctx)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			dot := graph.ToDOT(g, graph.DOTOptions{Detailed: opts.detailed})
			switch opts.format {
			case formatDOT:
				buf.WriteString(dot)
			case formatJSON:
				if err := graph.WriteJSON(g, &buf); err != nil {
					return err
				}
			case formatSVG:
				svg, err := s.renderSVG(ctx, dot, !opts.noCache)
				if err != nil {
					return err
				}
				buf.Write(svg)
			default:
				return fmt.Errorf("unknown format %q (want %s, %s or %s)", opts.format, formatDOT, formatSVG, formatJSON)
			}

			return c.writeOutput(opts.output, buf.Bytes())
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatDOT, "output format: dot, svg or json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVarP(&opts.detailed, "detailed", "d", false, "label edges with branch and commit")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "render SVG even when an identical graph was rendered before")
	return cmd
}

// renderSVG renders dot, reusing an earlier rendering of the same graph
// from the workspace cache.
func (s *session) renderSVG(ctx context.Context, dot string, useCache bool) ([]byte, error) {
	logger := loggerFromContext(ctx)
	var store cache.Cache = cache.Null{}
	var dir *cache.Dir
	if useCache {
		d, err := cache.NewDir(s.ws.CacheDir(), svgCacheAge)
		if err != nil {
			logger.Warn("render cache unavailable", "err", err)
		} else {
			store, dir = d, d
		}
	}

	key := cache.Key("svg", []byte(dot))
	if svg, hit, err := store.Get(ctx, key); err == nil && hit {
		logger.Debug("using cached rendering", "key", key)
		return svg, nil
	}

	spin := newSpinner(ctx, os.Stderr, "Rendering SVG...")
	spin.Start()
	svg, err := graph.RenderSVG(ctx, dot)
	if spin.Cancelled() {
		spin.Stop()
		return nil, ctx.Err()
	}
	if err != nil {
		spin.StopWithError("SVG rendering failed")
		return nil, err
	}
	spin.StopWithSuccess("Rendered SVG")

	if err := store.Set(ctx, key, svg); err != nil {
		logger.Warn("failed to cache rendering", "err", err)
	}
	if dir != nil {
		if n, err := dir.Prune(ctx); err != nil {
			logger.Debug("cache prune failed", "err", err)
		} else if n > 0 {
			logger.Debug("pruned cached renderings", "count", n)
		}
	}
	return svg, nil
}

func (c *CLI) writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := io.Copy(c.Out, bytes.NewReader(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	printFile(c.Out, path)
	return nil
}
