// Package audit provides the "dirkit audit" commands for viewing the command log.
package audit

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	auditpkg "github.com/klytics/dirkit/internal/audit"
	"github.com/klytics/dirkit/internal/config"
	"github.com/klytics/dirkit/internal/output"
)

// NewCommand creates the "audit" command with all subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "View and manage the command audit log",
		Long: `When audit.enabled is true, every dirkit command appends a line to
audit.file_path recording the directory, arguments, duration and exit code.`,
	}

	cmd.AddCommand(newLogCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func auditLogPath() string {
	config.Load()
	return viper.GetString("audit.file_path")
}

func newLogCmd() *cobra.Command {
	var (
		last      int
		command   string
		since     string
		directory string
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := auditLogPath()
			entries, err := auditpkg.ReadEntries(path)
			if err != nil {
				return err
			}

			var sinceTime time.Time
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date: %w (use YYYY-MM-DD)", err)
				}
				sinceTime = t
			}

			filtered := auditpkg.FilterEntries(entries, sinceTime, time.Time{}, command, directory)
			if last > 0 && len(filtered) > last {
				filtered = filtered[len(filtered)-last:]
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON("audit log", filtered)
			}

			if len(filtered) == 0 {
				fmt.Println("No audit log entries found.")
				return nil
			}

			fmt.Printf("Audit Log: %d entries\n", len(filtered))
			fmt.Printf("File: %s\n\n", path)

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "TIMESTAMP\tCOMMAND\tDIRECTORY\tDURATION\tEXIT\n")
			for _, e := range filtered {
				ts := e.Timestamp.Format("2006-01-02 15:04:05")
				dur := fmt.Sprintf("%dms", e.DurationMs)
				if e.DurationMs >= 1000 {
					dur = fmt.Sprintf("%.1fs", float64(e.DurationMs)/1000)
				}
				dir := e.Directory
				if dir == "" {
					dir = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", ts, e.Command, dir, dur, e.ExitCode)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&last, "last", 20, "Show last N entries")
	cmd.Flags().StringVar(&command, "command", "", "Filter by command name")
	cmd.Flags().StringVar(&since, "since", "", "Filter entries since date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&directory, "dir", "", "Filter by organized directory")
	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := auditLogPath()
			if err := auditpkg.Clear(path); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON("audit clear", map[string]string{"cleared": path})
			}
			fmt.Printf("Audit log cleared: %s\n", path)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show audit log path and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := auditLogPath()
			size := auditpkg.LogSize(path)
			entries, _ := auditpkg.ReadEntries(path)
			enabled := viper.GetBool("audit.enabled")

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON("audit status", map[string]interface{}{
					"enabled": enabled,
					"path":    path,
					"size":    size,
					"entries": len(entries),
				})
			}

			fmt.Printf("Audit log: %s\n", path)
			fmt.Printf("Enabled:   %v\n", enabled)
			if size == 0 {
				fmt.Println("Size:      empty (no entries)")
			} else {
				fmt.Printf("Size:      %s\n", formatSize(size))
			}
			fmt.Printf("Entries:   %d\n", len(entries))
			return nil
		},
	}
}

func formatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}
