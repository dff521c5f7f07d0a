package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/okrtree/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or empty the record, layout and artifact cache",
		Long: `okrtree caches fetched records, computed layouts and rendered artifacts.
Layouts are keyed by the content of the records, so edited records never
hit a stale layout; clearing is only needed to reclaim disk space or to
force a refetch from a source.`,
	}
	cmd.AddCommand(c.cacheClearCommand(), c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry in the file cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch c.cfg.Cache.Backend {
			case cacheNone:
				c.term.note("Caching is disabled in the config")
				return nil
			case cacheRedis:
				c.term.note("Redis entries expire after their TTL; clearing the file cache only")
			}

			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("resolve cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				c.term.note("Nothing cached yet")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			n, err := fc.Clear()
			if err != nil {
				return fmt.Errorf("clear %s: %w", fc.Dir(), err)
			}
			c.term.ok("Removed %d cache entries", n)
			c.term.detail("%s", fc.Dir())
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("resolve cache dir: %w", err)
			}
			_, err = fmt.Fprintln(c.out, dir)
			return err
		},
	}
}
