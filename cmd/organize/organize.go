// Package organize provides the "dirkit organize" command.
package organize

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/dirkit/internal/cli"
	"github.com/klytics/dirkit/internal/organizer"
	"github.com/klytics/dirkit/internal/output"
	"github.com/klytics/dirkit/internal/report"
)

type result struct {
	*organizer.OrganizeResult
	Report string            `json:"report,omitempty"`
	Events []organizer.Event `json:"events,omitempty"`
}

// NewCommand returns the organize command.
func NewCommand() *cobra.Command {
	var (
		dryRun     bool
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "organize [directory]",
		Short: "Sort the files of a directory into category folders",
		Long: `Move every file directly inside the directory into a folder named after its
category (Images, Documents, Videos, ...). Subdirectories are left alone.
A file that would overwrite an existing one is renamed "name (1).ext".

Undo is available inside "dirkit shell", which keeps the move ledger.

Examples:
  dirkit organize ~/Downloads
  dirkit organize --dry-run --report plan.xlsx
  dirkit organize ~/Desktop --categories ~/.dirkit/categories.yaml`,
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

			observer, collector, console := opts.Observer("organize")
			engine := opts.Engine(observer)

			var res *organizer.OrganizeResult
			if dryRun {
				res, err = engine.Plan(dir)
			} else {
				res, err = engine.Organize(dir)
			}
			if console != nil {
				console.Done()
			}
			if err != nil {
				return err
			}

			if reportPath != "" {
				if err := report.WriteFile(res, opts.Table.Names(), reportPath); err != nil {
					return err
				}
			}

			if opts.JSON {
				if err := output.PrintJSON("organize", result{
					OrganizeResult: res,
					Report:         reportPath,
					Events:         collector.Events(),
				}); err != nil {
					return err
				}
			} else {
				printFailures(res)
				if reportPath != "" {
					fmt.Printf("Report written to %s\n", reportPath)
				}
			}

			if res.Failed > 0 && !dryRun {
				return fmt.Errorf("%w: %d of %d files", organizer.ErrMoveFailed, res.Failed, res.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show where files would go without moving them")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the result to an .xlsx workbook")
	cmd.Flags().Bool("skip-hidden", false, "Leave dotfiles in place")
	return cmd
}

func printFailures(res *organizer.OrganizeResult) {
	failures := res.Failures()
	if len(failures) == 0 {
		return
	}

	fmt.Println()
	color.New(color.Bold).Println("Not moved:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  FILE\tCATEGORY\tREASON\n")
	for _, f := range failures {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", f.Name, f.Category, f.Reason)
	}
	w.Flush()
}
