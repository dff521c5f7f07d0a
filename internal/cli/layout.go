package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/okr"
	"github.com/matzehuels/okrtree/pkg/pipeline"
	"github.com/matzehuels/okrtree/pkg/render/sink"
	"github.com/matzehuels/okrtree/pkg/source"
)

// layoutFlags are the subtree, viewer and filter flags shared by layout
// and render.
type layoutFlags struct {
	root         string
	viewer       string
	businessUnit string
	assignedTo   string
	strict       bool
	pick         bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "root", "", "lay out only the subtree under this objective id (all: every root)")
	cmd.Flags().StringVar(&f.viewer, "viewer", "", "highlight objectives assigned to this user id")
	cmd.Flags().StringVar(&f.businessUnit, "business-unit", "", "flag objectives tagged with this business unit id")
	cmd.Flags().StringVar(&f.assignedTo, "assigned-to", "", "flag objectives assigned to this user id")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "reject objectives whose parent is missing")
	cmd.Flags().BoolVar(&f.pick, "pick", false, "choose the root objective interactively")
}

func (f *layoutFlags) apply(opts *pipeline.Options) {
	if f.root != "" {
		opts.Root = f.root
	}
	opts.Viewer = okr.ID(f.viewer)
	opts.Filter = graph.Filter{
		BusinessUnit: okr.ID(f.businessUnit),
		AssignedTo:   okr.ID(f.assignedTo),
	}
	opts.Strict = opts.Strict || f.strict
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		flow   bool
		src    sourceFlags
		lf     layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [records.json]",
		Short: "Compute the tree layout of a set of objectives",
		Long: `Compute the tree layout of a set of objectives.

Records are read from the file argument or from the configured source. The
output is the positioned forest as JSON, which 'render' accepts as input.
With --flow the output uses the React Flow {nodes, edges} shape instead.

Layouts are cached by record content, so repeated runs are instant.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args, &src, &lf, output, flow)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&flow, "flow", false, "write React Flow JSON")
	src.register(cmd)
	lf.register(cmd)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, args []string, sf *sourceFlags, lf *layoutFlags, output string, flow bool) error {
	src, closeSrc, err := c.openSource(ctx, sf, args)
	if err != nil {
		return err
	}
	defer closeSrc()

	runner, err := c.newRunner(ctx, sf.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.baseOptions()
	opts.Query = sf.mergeQuery(opts.Query)
	opts.Refresh = sf.refresh
	lf.apply(&opts)

	l, records, hit, err := c.computeLayout(ctx, runner, src, lf, opts)
	if err != nil {
		return err
	}

	var data []byte
	if flow {
		data, err = sink.RenderJSON(l, sink.WithRoster(), sink.WithIndent())
	} else {
		data, err = graph.MarshalLayout(l)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
	}

	if output == "" {
		_, err := c.out.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	c.term.ok("Layout complete")
	c.term.wrote(output)
	c.term.stats(len(records), len(l.Nodes), len(l.Edges), hit)
	c.term.hint("Render", appName+" render "+output)
	return nil
}

// computeLayout loads records, resolves --pick, fills the roster and lays
// out the result.
func (c *CLI) computeLayout(ctx context.Context, runner *pipeline.Runner, src source.Source, lf *layoutFlags, opts pipeline.Options) (graph.Layout, []okr.Record, bool, error) {
	finish := timed(c.Logger, "loaded objectives")
	spin := c.term.spinner(ctx, "Loading objectives...")
	spin.Start()
	records, loadHit, err := runner.LoadWithCacheInfo(ctx, src, opts)
	spin.Stop()
	if err != nil {
		return graph.Layout{}, nil, false, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	if !loadHit {
		finish("records", len(records), "source", src.Name())
	}

	if lf.pick {
		root, err := pickRoot(ctx, records)
		if err != nil {
			return graph.Layout{}, nil, false, err
		}
		opts.Root = root
	}

	if len(opts.Users) == 0 {
		users, err := source.Users(ctx, src)
		if err != nil {
			c.Logger.Warn("roster unavailable", "source", src.Name(), "error", err)
		}
		opts.Users = users
	}

	l, hit, err := runner.ComputeLayoutWithCacheInfo(ctx, records, opts)
	if err != nil {
		return graph.Layout{}, nil, false, err
	}
	if ctx.Err() != nil {
		return graph.Layout{}, nil, false, ctx.Err()
	}
	return l, records, hit, nil
}
