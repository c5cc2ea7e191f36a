// Package cli holds the wiring shared by dirkit commands: loading settings,
// building an engine from flags and config, and mapping errors to exit codes.
package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klytics/dirkit/internal/categories"
	"github.com/klytics/dirkit/internal/config"
	"github.com/klytics/dirkit/internal/organizer"
	"github.com/klytics/dirkit/internal/output"
)

// Options are the common settings read from persistent flags and config.
type Options struct {
	JSON       bool
	Verbose    bool
	SkipHidden bool
	Table      *categories.Table
	Config     *config.Config
}

// Load reads config and the persistent flags of cmd. --categories overrides
// categories_file; a local --skip-hidden flag, when set, overrides organize.skip_hidden.
func Load(cmd *cobra.Command) (*Options, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	override, _ := cmd.Flags().GetString("categories")
	table, err := cfg.CategoryTable(override)
	if err != nil {
		return nil, err
	}

	opts := &Options{
		SkipHidden: cfg.Organize.SkipHidden,
		Table:      table,
		Config:     cfg,
	}
	opts.JSON, _ = cmd.Flags().GetBool("json")
	opts.Verbose, _ = cmd.Flags().GetBool("verbose")
	if f := cmd.Flags().Lookup("skip-hidden"); f != nil && f.Changed {
		opts.SkipHidden, _ = cmd.Flags().GetBool("skip-hidden")
	}
	return opts, nil
}

// Engine builds an engine on the OS filesystem reporting to observer.
func (o *Options) Engine(observer organizer.Observer) *organizer.Engine {
	return organizer.New(
		organizer.WithTable(o.Table),
		organizer.WithObserver(observer),
		organizer.WithSkipHidden(o.SkipHidden),
	)
}

// Observer returns a Collector for --json runs and a Console otherwise. The
// console draws a progress bar unless the progress setting is off.
func (o *Options) Observer(label string) (organizer.Observer, *output.Collector, *output.Console) {
	if o.JSON {
		c := &output.Collector{}
		return c, c, nil
	}
	console := output.NewConsole(label, o.Verbose)
	if !viper.GetBool("progress") {
		console.Bar = nil
	}
	return console, nil, console
}

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return output.ExitOK
	case errors.Is(err, organizer.ErrMoveFailed),
		errors.Is(err, organizer.ErrCleanupFailed),
		errors.Is(err, os.ErrPermission):
		return output.ExitSystemError
	default:
		return output.ExitUserError
	}
}

// AuditDirAnnotation marks commands whose first argument is the directory they
// act on, so the audit entry can record it.
const AuditDirAnnotation = "dirkit.audit.dir"
