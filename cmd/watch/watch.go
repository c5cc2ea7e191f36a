// Package watch provides the "dirkit watch" commands for automatic organizing.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/dirkit/internal/cli"
	"github.com/klytics/dirkit/internal/config"
	"github.com/klytics/dirkit/internal/output"
	w "github.com/klytics/dirkit/internal/watch"
)

// NewCommand creates the "watch" command with subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Organize a directory automatically as files arrive",
		Long: `Watch a directory and organize it whenever new files stop arriving for the
debounce interval. Partial downloads (.part, .crdownload, ...) are ignored
until they are renamed to their final name.

Example:
  dirkit watch start ~/Downloads --debounce 2000
  dirkit watch status
  dirkit watch stop`,
	}

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func newStartCmd() *cobra.Command {
	var debounce int

	cmd := &cobra.Command{
		Use:         "start <directory>",
		Short:       "Start watching a directory",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{cli.AuditDirAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := cli.Load(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = opts.Config.Watch.DebounceMs
			}

			cfg := w.Config{
				Directory:  args[0],
				DebounceMs: debounce,
				SkipHidden: opts.SkipHidden,
				StartedAt:  time.Now(),
			}
			watcher, err := w.New(cfg)
			if err != nil {
				return err
			}

			// Runs are serialized by the engine; a pass that overlaps another returns ErrBusy
			// and the next event schedules a fresh one.
			observer, _, console := opts.Observer("organize")
			engine := opts.Engine(observer)
			watcher.Handler = func(dir string) error {
				_, err := engine.Organize(dir)
				if console != nil {
					console.Done()
				}
				return err
			}

			configDir := config.Dir()
			if err := w.WritePIDFile(configDir); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not write PID file: %v\n", err)
			}
			defer w.RemovePIDFile(configDir)
			if err := w.SaveConfig(configDir, watcher.Config); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save watcher state: %v\n", err)
			}

			// Files already waiting are organized right away.
			if _, err := engine.Organize(watcher.Config.Directory); err != nil {
				return err
			}

			fmt.Printf("Watching %s\n", watcher.Config.Directory)
			fmt.Println("Press Ctrl+C to stop")

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return watcher.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&debounce, "debounce", 1000, "Quiet period in milliseconds before organizing")
	cmd.Flags().Bool("skip-hidden", false, "Leave dotfiles in place")
	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir := config.Dir()
			pid, err := w.ReadPIDFile(configDir)
			if err != nil {
				return fmt.Errorf("no watcher running (PID file not found)")
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("could not find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				w.RemovePIDFile(configDir)
				return fmt.Errorf("could not stop watcher (PID %d): %w", pid, err)
			}
			w.RemovePIDFile(configDir)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON("watch stop", map[string]any{"stopped": true, "pid": pid})
			}
			fmt.Printf("Stopped watcher (PID %d)\n", pid)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir := config.Dir()

			pid, err := w.ReadPIDFile(configDir)
			running := err == nil

			// Signal 0 checks that the process still exists
			if running {
				process, err := os.FindProcess(pid)
				if err != nil || process.Signal(syscall.Signal(0)) != nil {
					running = false
					w.RemovePIDFile(configDir)
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if !running {
				if jsonOut {
					return output.PrintJSON("watch status", map[string]any{"running": false})
				}
				fmt.Println("Watcher is not running")
				return nil
			}

			cfg, _ := w.LoadConfig(configDir)
			status := map[string]any{"running": true, "pid": pid}
			if cfg != nil {
				status["directory"] = cfg.Directory
				status["debounceMs"] = cfg.DebounceMs
				status["startedAt"] = cfg.StartedAt
			}
			if jsonOut {
				return output.PrintJSON("watch status", status)
			}

			fmt.Printf("Watcher is running (PID %d)\n", pid)
			if cfg != nil {
				fmt.Printf("  Directory: %s\n", cfg.Directory)
				fmt.Printf("  Debounce:  %dms\n", cfg.DebounceMs)
				fmt.Printf("  Started:   %s\n", cfg.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
