package cli

import (
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// completionShells maps each supported shell to its generator and to the
// line that installs the script for every new session.
var completionShells = map[string]struct {
	gen     func(root *cobra.Command, w io.Writer) error
	install string
}{
	"bash": {
		gen:     func(r *cobra.Command, w io.Writer) error { return r.GenBashCompletionV2(w, true) },
		install: appName + " completion bash > /etc/bash_completion.d/" + appName,
	},
	"zsh": {
		gen:     func(r *cobra.Command, w io.Writer) error { return r.GenZshCompletion(w) },
		install: appName + ` completion zsh > "${fpath[1]}/_` + appName + `"`,
	},
	"fish": {
		gen:     func(r *cobra.Command, w io.Writer) error { return r.GenFishCompletion(w, true) },
		install: appName + " completion fish > ~/.config/fish/completions/" + appName + ".fish",
	},
	"powershell": {
		gen:     func(r *cobra.Command, w io.Writer) error { return r.GenPowerShellCompletionWithDesc(w) },
		install: appName + " completion powershell >> $PROFILE",
	},
}

func (c *CLI) completionCommand() *cobra.Command {
	shells := make([]string, 0, len(completionShells))
	for name := range completionShells {
		shells = append(shells, name)
	}
	slices.Sort(shells)

	var long strings.Builder
	long.WriteString("Print a shell completion script for " + appName + ".\n\nInstall it for every new session:\n\n")
	for _, name := range shells {
		long.WriteString("  " + completionShells[name].install + "\n")
	}

	return &cobra.Command{
		Use:                   "completion [" + strings.Join(shells, "|") + "]",
		Short:                 "Generate shell completion scripts",
		Long:                  long.String(),
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionShells[args[0]].gen(cmd.Root(), c.out)
		},
	}
}
