package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/okrtree/internal/server"
	"github.com/matzehuels/okrtree/pkg/source"
)

// serveCommand starts the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		noSource bool
		sf       sourceFlags
		lf       layoutFlags
		vizType  string
	)

	cmd := &cobra.Command{
		Use:   "serve [records.json]",
		Short: "Serve layouts over HTTP",
		Long: `Serve layouts over HTTP.

Stateless routes lay out or render records posted by the caller. The board
routes keep one layout current for the configured source; clients can follow
it with server-sent events on /api/v1/board/events. Prometheus metrics are
exposed on /metrics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args, &sf, &lf, addr, vizType, noSource)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: [server] addr or :8080)")
	cmd.Flags().BoolVar(&noSource, "no-source", false, "start with an empty board fed only through the API")
	cmd.Flags().StringVarP(&vizType, "type", "t", "", "default visualization type: graph, nodelink")
	sf.register(cmd)
	lf.register(cmd)
	return cmd
}

func (c *CLI) runServe(ctx context.Context, args []string, sf *sourceFlags, lf *layoutFlags, addr, vizType string, noSource bool) error {
	if addr == "" {
		addr = c.cfg.Server.Addr
	}

	var src source.Source
	if !noSource {
		s, closeSrc, err := c.openSource(ctx, sf, args)
		if err != nil {
			return err
		}
		defer closeSrc()
		src = s
	}

	runner, err := c.newRunner(ctx, sf.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.baseOptions()
	opts.Query = sf.mergeQuery(opts.Query)
	opts.VizType = vizType
	lf.apply(&opts)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(server.Config{
		Addr:     addr,
		Logger:   c.Logger,
		Runner:   runner,
		Source:   src,
		Options:  opts,
		Registry: reg,
	})
	srv.RegisterHooks()

	c.term.note("Serving on %s", styleLink.Render("http://"+displayAddr(addr)))
	return srv.ListenAndServe(ctx)
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
