package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/okrtree/pkg/okr"
)

// rootsCommand lists the top-level objectives.
func (c *CLI) rootsCommand() *cobra.Command {
	var sf sourceFlags

	cmd := &cobra.Command{
		Use:   "roots [records.json]",
		Short: "List the top-level objectives",
		Long: `List the top-level objectives with their direct child counts.

The ids shown are the values accepted by --root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoots(cmd.Context(), args, &sf)
		},
	}
	sf.register(cmd)
	return cmd
}

func (c *CLI) runRoots(ctx context.Context, args []string, sf *sourceFlags) error {
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
	records, err := runner.Load(ctx, src, opts)
	if err != nil {
		return fmt.Errorf("load %s: %w", src.Name(), err)
	}

	roots := okr.Roots(records)
	if len(roots) == 0 {
		c.term.note("No objectives")
		return nil
	}
	fmt.Fprintln(c.out, rootsTable(records, roots))
	return nil
}

// rootsTable renders roots with their direct child counts.
func rootsTable(records, roots []okr.Record) string {
	children := make(map[okr.ID]int)
	for _, r := range records {
		if r.Parent != "" {
			children[r.Parent]++
		}
	}

	rows := make([][]string, 0, len(roots))
	for _, r := range roots {
		names := make([]string, len(r.Assignees))
		for i, a := range r.Assignees {
			names[i] = a.Name
		}
		status := r.Status
		if status == "" {
			status = "-"
		}
		rows = append(rows, []string{string(r.ID), r.Name, status, strconv.Itoa(children[r.ID]), strings.Join(names, ", ")})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("ID", "Objective", "Status", "Children", "Assignees").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleTableHeader
			case row < 0 || row >= len(roots):
				return styleText
			case col == 0:
				return styleAccent
			case col == 2:
				return statusStyle(roots[row].Status)
			case col == 4:
				return styleFaint
			}
			return styleText
		}).
		Render()
}
