package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/okrtree/pkg/discussion"
	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/source"
)

// discussionsCommand lists the weekly discussion forms.
func (c *CLI) discussionsCommand() *cobra.Command {
	var (
		filter string
		sf     sourceFlags
	)

	cmd := &cobra.Command{
		Use:   "discussions [records.json]",
		Short: "List weekly discussion forms",
		Long: `List the signed-in user's weekly discussion forms.

--filter selects a tab: all (default), pending, yet-to-start or completed.
Forms dated in the current week (Monday to Sunday) are marked with a dot.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := discussion.ParseFilter(filter)
			if err != nil {
				return err
			}
			return c.runDiscussions(cmd.Context(), args, &sf, f, time.Now())
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "tab: all, pending, yet-to-start, completed")
	sf.register(cmd)
	return cmd
}

func (c *CLI) runDiscussions(ctx context.Context, args []string, sf *sourceFlags, f discussion.Filter, now time.Time) error {
	src, closeSrc, err := c.openSource(ctx, sf, args)
	if err != nil {
		return err
	}
	defer closeSrc()

	forms, err := source.Forms(ctx, src)
	if err != nil {
		return fmt.Errorf("load forms from %s: %w", src.Name(), err)
	}
	if forms == nil {
		return errors.New(errors.ErrCodeUnsupported, "source %s has no discussion forms", src.Name())
	}

	fmt.Fprintln(c.out, filterTabs(discussion.Counts(forms), f))
	rows := discussion.View(forms, f, now)
	if len(rows) == 0 {
		c.term.note("No forms")
		return nil
	}
	fmt.Fprintln(c.out, discussionTable(rows))
	return nil
}

// filterTabs renders the tab bar with per-tab counts, the active tab
// highlighted.
func filterTabs(counts map[discussion.Filter]int, active discussion.Filter) string {
	tabs := make([]string, len(discussion.Filters))
	for i, f := range discussion.Filters {
		label := fmt.Sprintf("%s (%d)", f, counts[f])
		if f == active {
			tabs[i] = styleHeading.Render(label)
		} else {
			tabs[i] = styleFaint.Render(label)
		}
	}
	return strings.Join(tabs, styleFaint.Render(" · "))
}

func discussionTable(rows []discussion.Row) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		mark := ""
		if r.CurrentWeek {
			mark = "●"
		}
		cells = append(cells, []string{mark, r.Form.Week, r.Form.EntryDate.Format("Jan 2, 2006"), r.Form.Label(), r.Action.Label})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("", "Week", "Date", "Status", "Action").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			if row < 0 || row >= len(rows) {
				return styleText
			}
			r := rows[row]
			switch {
			case col == 0:
				return styleAccent
			case col == 3 && r.Form.Status == discussion.Submitted:
				return styleOK
			case col == 4 && !r.Action.Enabled:
				return styleFaint
			}
			return styleText
		}).
		Render()
}
