package cli

import (
	"github.com/spf13/cobra"
)

func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for gpm.

To load completions:

Bash:
  $ source <(gpm completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ gpm completion bash > /etc/bash_completion.d/gpm
  # macOS:
  $ gpm completion bash > $(brew --prefix)/etc/bash_completion.d/gpm

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ gpm completion zsh > "${fpath[1]}/_gpm"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ gpm completion fish | source

  # To load completions for each session, execute once:
  $ gpm completion fish > ~/.config/fish/completions/gpm.fish

PowerShell:
  PS> gpm completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> gpm completion powershell > gpm.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(c.Out)
			case "zsh":
				return cmd.Root().GenZshCompletion(c.Out)
			case "fish":
				return cmd.Root().GenFishCompletion(c.Out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(c.Out)
			}
			return nil
		},
	}

	return cmd
}

// completePackages offers the names of the packages in the workspace.
func (c *CLI) completePackages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	s, err := c.open()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	g, err := s.load(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return packageNames(g, args...), cobra.ShellCompDirectiveNoFileComp
}
