// Package shell provides the "dirkit shell" interactive command.
package shell

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/klytics/dirkit/internal/cli"
	shellpkg "github.com/klytics/dirkit/internal/shell"
)

// NewCommand creates the "shell" command.
func NewCommand() *cobra.Command {
	var evalCmds []string

	cmd := &cobra.Command{
		Use:   "shell [directory]",
		Short: "Start an interactive session with undo",
		Long: `Start an interactive session that keeps the selected folder and the move
ledger between commands, so the latest organize can be undone.

  dirkit shell ~/Downloads
  dirkit> preview
  dirkit> organize
  dirkit> undo

--eval runs commands in one session and exits, e.g.
  dirkit shell ~/Downloads --eval organize --eval "report out.xlsx"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := cli.Load(cmd)
			if err != nil {
				return err
			}
			// The session prints human-readable lines; --json does not apply here.
			opts.JSON = false

			observer, _, console := opts.Observer("organize")
			if console != nil {
				// Progress redraws would fight with the readline prompt.
				console.Bar = nil
			}
			session := shellpkg.NewSession(opts.Engine(observer), os.Stdout)

			if len(args) > 0 {
				if _, err := session.Engine.Select(args[0]); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if len(evalCmds) > 0 {
				for _, line := range evalCmds {
					if err := session.Eval(ctx, line); err != nil {
						if errors.Is(err, shellpkg.ErrQuit) {
							return nil
						}
						return err
					}
				}
				return nil
			}
			return session.Run(ctx)
		},
	}

	cmd.Flags().StringArrayVar(&evalCmds, "eval", nil, "Run a session command and exit (repeatable)")
	cmd.Flags().Bool("skip-hidden", false, "Leave dotfiles in place")
	return cmd
}
