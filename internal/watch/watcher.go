// Package watch organizes a directory automatically as files arrive.
// It listens for fsnotify events on one directory and, once no new file has
// appeared for the debounce interval, runs a single organize pass.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config holds the watcher configuration. It is also saved next to the PID
// file so `dirkit watch status` can describe a running watcher.
type Config struct {
	Directory  string    `json:"directory"`
	DebounceMs int       `json:"debounceMs"`
	SkipHidden bool      `json:"skipHidden"`
	StartedAt  time.Time `json:"startedAt"`
}

// Run records one organize pass triggered by the watcher.
type Run struct {
	Time    time.Time `json:"time"`
	Trigger string    `json:"trigger"` // file that started the debounce window
	Status  string    `json:"status"`  // "processed", "error"
	Error   string    `json:"error,omitempty"`
}

// Handler organizes dir. It is called from a timer goroutine.
type Handler func(dir string) error

// Watcher debounces file events in one directory into organize passes.
type Watcher struct {
	Config  Config
	Logger  *log.Logger
	Handler Handler

	mu      sync.Mutex
	runs    []Run
	timer   *time.Timer
	trigger string
	watcher *fsnotify.Watcher
}

// Status represents the current watcher status.
type Status struct {
	Running   bool   `json:"running"`
	Directory string `json:"directory"`
	Runs      int    `json:"runs"`
	Pending   bool   `json:"pending"`
}

// tempSuffixes mark files that are still being written by a browser or editor.
var tempSuffixes = []string{".part", ".crdownload", ".download", ".tmp", ".partial", ".swp"}

// New creates a Watcher for config.Directory.
func New(config Config) (*Watcher, error) {
	dir, err := filepath.Abs(config.Directory)
	if err != nil {
		return nil, fmt.Errorf("could not resolve %s: %w", config.Directory, err)
	}
	config.Directory = dir
	if config.DebounceMs <= 0 {
		config.DebounceMs = 1000
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	return &Watcher{
		Config:  config,
		Logger:  log.New(os.Stderr, "[watch] ", log.LstdFlags),
		watcher: fsw,
	}, nil
}

// Start watches the directory until ctx is cancelled. A pending organize pass
// is discarded on shutdown.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.Config.Directory); err != nil {
		w.watcher.Close()
		return fmt.Errorf("could not watch %s: %w", w.Config.Directory, err)
	}
	w.Logger.Printf("Watching %s (debounce %dms)", w.Config.Directory, w.Config.DebounceMs)

	for {
		select {
		case <-ctx.Done():
			w.Logger.Println("Stopping watcher")
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Printf("Error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if filepath.Dir(event.Name) != w.Config.Directory {
		return
	}
	if !w.wants(event.Name) {
		return
	}
	w.schedule(filepath.Base(event.Name))
}

// wants reports whether path is a finished regular file worth organizing.
// Files moved away by a previous pass no longer exist and are dropped here.
func (w *Watcher) wants(path string) bool {
	base := filepath.Base(path)
	if IsTemporary(base) {
		return false
	}
	if w.Config.SkipHidden && strings.HasPrefix(base, ".") {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return true
}

// schedule restarts the debounce window.
func (w *Watcher) schedule(trigger string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	if w.trigger == "" {
		w.trigger = trigger
	}
	w.timer = time.AfterFunc(time.Duration(w.Config.DebounceMs)*time.Millisecond, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	trigger := w.trigger
	w.trigger = ""
	w.timer = nil
	w.mu.Unlock()

	run := Run{Time: time.Now(), Trigger: trigger, Status: "processed"}
	if w.Handler != nil {
		if err := w.Handler(w.Config.Directory); err != nil {
			run.Status = "error"
			run.Error = err.Error()
			w.Logger.Printf("Error organizing %s: %v", w.Config.Directory, err)
		} else {
			w.Logger.Printf("Organized %s (triggered by %s)", w.Config.Directory, trigger)
		}
	} else {
		w.Logger.Printf("Change detected in %s (triggered by %s) [no handler]", w.Config.Directory, trigger)
	}

	w.mu.Lock()
	w.runs = append(w.runs, run)
	w.mu.Unlock()
}

// IsTemporary reports whether name looks like a partial download or an editor
// lock file.
func IsTemporary(name string) bool {
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".~") {
		return true
	}
	lower := strings.ToLower(name)
	for _, suffix := range tempSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// GetStatus returns the current watcher status.
func (w *Watcher) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Running:   true,
		Directory: w.Config.Directory,
		Runs:      len(w.runs),
		Pending:   w.timer != nil,
	}
}

// Runs returns the organize passes made so far.
func (w *Watcher) Runs() []Run {
	w.mu.Lock()
	defer w.mu.Unlock()
	runs := make([]Run, len(w.runs))
	copy(runs, w.runs)
	return runs
}

const (
	pidFile    = "watch.pid"
	configFile = "watch.json"
)

// WritePIDFile writes the current process ID to the PID file in dir.
func WritePIDFile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, pidFile), []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}

// ReadPIDFile reads the PID from the PID file in dir.
func ReadPIDFile(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

// RemovePIDFile removes the PID file and the saved config.
func RemovePIDFile(dir string) error {
	os.Remove(filepath.Join(dir, configFile))
	return os.Remove(filepath.Join(dir, pidFile))
}

// SaveConfig writes the watcher config to dir.
func SaveConfig(dir string, config Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, configFile), data, 0644)
}

// LoadConfig reads the watcher config from dir.
func LoadConfig(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		return nil, err
	}
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid watch config: %w", err)
	}
	return &config, nil
}
