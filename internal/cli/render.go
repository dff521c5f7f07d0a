package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/okr"
	"github.com/matzehuels/okrtree/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string  // output file (single format) or base path
	vizType  string  // graph or nodelink
	formats  string  // comma-separated formats
	title    string  // heading drawn above the tree
	noEdges  bool    // omit connectors
	detailed bool    // status and assignees in nodelink labels
	scale    float64 // PNG scale factor
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		ro renderOpts
		sf sourceFlags
		lf layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "render [records.json|layout.json]",
		Short: "Render objectives or a computed layout",
		Long: `Render objectives or a computed layout to SVG, JSON, DOT, PNG or PDF.

The input is either a record file, a layout produced by 'layout', or, without
an argument, the configured source. The graph viz type draws the tree cards
directly. The nodelink type runs the same positions through Graphviz.

PNG and PDF need rsvg-convert on the PATH.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args, &sf, &lf, &ro)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&ro.vizType, "type", "t", pipeline.DefaultVizType, "visualization type: graph (default), nodelink")
	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s): svg (default), json, dot, png, pdf (comma-separated)")
	cmd.Flags().StringVar(&ro.title, "title", "", "title drawn above the tree")
	cmd.Flags().BoolVar(&ro.noEdges, "no-edges", false, "omit parent-child connectors")
	cmd.Flags().BoolVar(&ro.detailed, "detailed", false, "show status and assignees (nodelink)")
	cmd.Flags().Float64Var(&ro.scale, "scale", 2, "PNG scale factor")
	sf.register(cmd)
	lf.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, args []string, sf *sourceFlags, lf *layoutFlags, ro *renderOpts) error {
	opts := c.baseOptions()
	opts.Query = sf.mergeQuery(opts.Query)
	opts.Refresh = sf.refresh
	lf.apply(&opts)
	opts.VizType = ro.vizType
	opts.Formats = parseFormats(ro.formats)
	opts.Title = ro.title
	opts.NoEdges = ro.noEdges
	opts.Detailed = ro.detailed
	opts.Scale = ro.scale
	if err := opts.ValidateForRender(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, sf.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var (
		l       graph.Layout
		records int
		hit     bool
	)
	if len(args) == 1 && isLayoutFile(args[0]) {
		l, err = graph.ReadLayoutFile(args[0])
		if err != nil {
			return fmt.Errorf("load layout %s: %w", args[0], err)
		}
		records = len(l.Nodes)
	} else {
		src, closeSrc, err := c.openSource(ctx, sf, args)
		if err != nil {
			return err
		}
		defer closeSrc()

		var recs []okr.Record
		l, recs, hit, err = c.computeLayout(ctx, runner, src, lf, opts)
		if err != nil {
			return err
		}
		records = len(recs)
	}

	spin := c.term.spinner(ctx, "Rendering "+strings.Join(opts.Formats, ", ")+"...")
	spin.Start()
	artifacts, renderHit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	paths := outputPaths(args, ro.output, opts.Formats)
	c.term.ok("Rendered %s", opts.VizType)
	for _, format := range opts.Formats {
		path := paths[format]
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		c.term.wrote(path)
	}
	c.term.stats(records, len(l.Nodes), len(l.Edges), hit && renderHit)
	return nil
}

// isLayoutFile reports whether path holds a serialized layout rather than
// records.
func isLayoutFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return graph.IsLayout(data)
}

// outputPaths maps each format to its output file. A single format with
// -o writes exactly there; otherwise -o (or the input's stem) is a base.
func outputPaths(args []string, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}

	base := output
	if base == "" {
		base = appName
		if len(args) == 1 {
			base = strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			base = strings.TrimSuffix(base, ".layout")
		}
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}
