// Package cmd contains all CLI commands for the dirkit binary.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdaudit "github.com/klytics/dirkit/cmd/audit"
	"github.com/klytics/dirkit/cmd/categories"
	"github.com/klytics/dirkit/cmd/cleanup"
	"github.com/klytics/dirkit/cmd/completion"
	cmdconfig "github.com/klytics/dirkit/cmd/config"
	"github.com/klytics/dirkit/cmd/organize"
	cmdshell "github.com/klytics/dirkit/cmd/shell"
	"github.com/klytics/dirkit/cmd/version"
	cmdwatch "github.com/klytics/dirkit/cmd/watch"
	"github.com/klytics/dirkit/internal/audit"
	"github.com/klytics/dirkit/internal/cli"
	"github.com/klytics/dirkit/internal/config"
	"github.com/klytics/dirkit/internal/output"
)

var (
	jsonOutput     bool
	verbose        bool
	noColor        bool
	categoriesFile string
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dirkit",
		Short: "Sort cluttered folders into category folders, and put them back",
		Long: `dirkit sorts the files of a folder into Images, Documents, Videos, Music,
Archives, Code and Others by extension. Collisions are renamed, never
overwritten, and empty category folders can be cleaned up afterwards.

Use "dirkit shell" for an interactive session where organize can be undone.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.Load()
			if noColor || !viper.GetBool("output.color") {
				color.NoColor = true
			}
			if jsonOutput {
				os.Setenv("DIRKIT_JSON", "true")
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Show debug events")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVar(&categoriesFile, "categories", "", "Category table YAML file (overrides categories_file)")

	rootCmd.AddCommand(organize.NewCommand())
	rootCmd.AddCommand(cleanup.NewCommand())
	rootCmd.AddCommand(categories.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdshell.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(cmdaudit.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command, records it in the audit log and exits with
// the mapped exit code on error.
func Execute() {
	rootCmd := NewRootCommand()
	start := time.Now()
	executed, err := rootCmd.ExecuteContextC(context.Background())
	code := cli.ExitCode(err)

	logInvocation(executed, err, code, time.Since(start))

	if err != nil {
		if jsonOutput {
			name := "dirkit"
			if executed != nil {
				name = commandName(executed)
			}
			output.PrintJSONError(name, err, code)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(code)
	}
}

func logInvocation(executed *cobra.Command, err error, code int, elapsed time.Duration) {
	if executed == nil {
		return
	}
	cfg, cfgErr := config.Load()
	if cfgErr != nil || !cfg.Audit.Enabled {
		return
	}

	home, _ := os.UserHomeDir()
	entry := audit.Entry{
		Command:    executed.CommandPath(),
		Args:       audit.Redact(os.Args[1:], home),
		ExitCode:   code,
		DurationMs: elapsed.Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if executed.Annotations[cli.AuditDirAnnotation] == "true" {
		dir := "."
		if args := executed.Flags().Args(); len(args) > 0 {
			dir = args[0]
		}
		if abs, absErr := filepath.Abs(dir); absErr == nil {
			dir = abs
		}
		entry.Directory = audit.Redact([]string{dir}, home)[0]
	}

	if logErr := audit.NewLogger(cfg.Audit.FilePath, true).Log(context.Background(), entry); logErr != nil && verbose {
		fmt.Fprintf(os.Stderr, "Warning: audit log: %v\n", logErr)
	}
}

// commandName returns the command path without the binary name, e.g. "watch start".
func commandName(c *cobra.Command) string {
	path := c.CommandPath()
	if root := c.Root(); root != nil && len(path) > len(root.Name()) {
		return path[len(root.Name())+1:]
	}
	return path
}
