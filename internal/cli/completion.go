package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// chartExtensions are the document encodings pkg/io can import.
var chartExtensions = []string{"toml", "yaml", "yml", "json"}

// completeChartFile limits shell completion of a [chart] argument to
// files pkg/io can read.
func completeChartFile(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return chartExtensions, cobra.ShellCompDirectiveFilterFileExt
}

var completionScripts = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Print a shell completion script",
		Long: `Print a completion script for chartflow. Chart arguments of render and
partition complete to .toml, .yaml, .yml and .json files.

  $ source <(chartflow completion bash)
  $ chartflow completion zsh > "${fpath[1]}/_chartflow"
  $ chartflow completion fish > ~/.config/fish/completions/chartflow.fish
  PS> chartflow completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionScripts[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}
