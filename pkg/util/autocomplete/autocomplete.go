package autocomplete

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// shells maps supported shells to the command loading the script in the
// current session.
var shells = map[string]string{
	"bash":       "source <(%s completion bash)",
	"zsh":        "source <(%s completion zsh)",
	"fish":       "%s completion fish | source",
	"powershell": "%s completion powershell | Out-String | Invoke-Expression",
}

// Command returns the command printing shell completion script of the
// application called name.
func Command(name string) *cobra.Command {
	var sb strings.Builder
	sb.WriteString("To load completions in the current session:\n")
	for _, sh := range []string{"bash", "zsh", "fish", "powershell"} {
		fmt.Fprintf(&sb, "\n%s:\n  $ %s\n", sh, fmt.Sprintf(shells[sh], name))
	}

	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate completion script",
		Long:                  sb.String(),
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
