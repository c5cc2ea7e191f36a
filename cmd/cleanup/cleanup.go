// Package cleanup provides the "dirkit cleanup" command.
package cleanup

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klytics/dirkit/internal/cli"
	"github.com/klytics/dirkit/internal/organizer"
	"github.com/klytics/dirkit/internal/output"
)

// NewCommand returns the cleanup command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup [directory]",
		Short: "Remove empty category folders",
		Long: `Remove folders directly inside the directory that are named after a category
and are empty. Other folders, and category folders that still hold anything,
are left alone. Folders that cannot be removed are reported but do not fail
the command.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{cli.AuditDirAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := cli.Load(cmd)
			if err != nil {
				return err
			}

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			observer, collector, _ := opts.Observer("cleanup")
			res, err := opts.Engine(observer).Cleanup(dir)
			if err != nil {
				return err
			}

			if opts.JSON {
				return output.PrintJSON("cleanup", struct {
					*organizer.CleanupResult
					Events []organizer.Event `json:"events,omitempty"`
				}{res, collector.Events()})
			}
			if len(res.Removed) == 0 && len(res.Failed) == 0 {
				fmt.Println("No empty category folders.")
			}
			return nil
		},
	}
}
