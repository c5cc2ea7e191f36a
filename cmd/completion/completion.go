// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCommand returns the completion command for rootCmd.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for dirkit.

Install instructions:
  Bash:       dirkit completion bash > /etc/bash_completion.d/dirkit
              echo 'source <(dirkit completion bash)' >> ~/.bashrc
  Zsh:        dirkit completion zsh > ~/.zsh/completions/_dirkit
  Fish:       dirkit completion fish > ~/.config/fish/completions/dirkit.fish
  PowerShell: dirkit completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				fmt.Fprintln(out, "# dirkit bash completion")
				return rootCmd.GenBashCompletionV2(out, true)
			case "zsh":
				fmt.Fprintln(out, "# dirkit zsh completion")
				return rootCmd.GenZshCompletion(out)
			case "fish":
				fmt.Fprintln(out, "# dirkit fish completion")
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				fmt.Fprintln(out, "# dirkit PowerShell completion")
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", args[0])
			}
		},
	}
}
