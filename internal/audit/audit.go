// Package audit records which dirkit commands ran, against which directory, and
// with what outcome. Entries are JSON lines appended to a local file.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Machine    string    `json:"machine"`
	Command    string    `json:"command"`
	Args       []string  `json:"args"`
	Directory  string    `json:"directory,omitempty"`
	ExitCode   int       `json:"exit_code"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Logger appends entries to FilePath when Enabled.
type Logger struct {
	FilePath string
	Enabled  bool
}

// NewLogger creates a Logger.
func NewLogger(filePath string, enabled bool) *Logger {
	return &Logger{FilePath: filePath, Enabled: enabled}
}

// Log appends entry to the log file. Write failures are returned but callers
// treat them as best effort; a disabled logger does nothing.
func (l *Logger) Log(_ context.Context, entry Entry) error {
	if l == nil || !l.Enabled || l.FilePath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.FilePath), 0755); err != nil {
		return fmt.Errorf("could not create audit directory: %w", err)
	}

	f, err := os.OpenFile(l.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open audit log: %w", err)
	}
	defer f.Close()

	if entry.Machine == "" {
		entry.Machine, _ = os.Hostname()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// ReadEntries reads all audit entries from the log file.
// A missing file yields no entries; malformed lines are skipped.
func ReadEntries(filePath string) ([]Entry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FilterEntries returns entries matching the given criteria. Zero values match everything.
func FilterEntries(entries []Entry, since, until time.Time, command, directory string) []Entry {
	var result []Entry
	for _, e := range entries {
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		if !until.IsZero() && e.Timestamp.After(until) {
			continue
		}
		if command != "" && !strings.Contains(e.Command, command) {
			continue
		}
		if directory != "" && e.Directory != directory {
			continue
		}
		result = append(result, e)
	}
	return result
}

// LogSize returns the size of the audit log in bytes, or 0 if not found.
func LogSize(filePath string) int64 {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Clear truncates the audit log file. A missing file is not an error.
func Clear(filePath string) error {
	if err := os.Truncate(filePath, 0); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Redact rewrites paths under home as ~/... so logs can be shared without
// leaking the user name.
func Redact(args []string, home string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = redactPath(arg, home)
	}
	return result
}

func redactPath(arg, home string) string {
	if home == "" || home == "/" {
		return arg
	}
	if arg == home {
		return "~"
	}
	if strings.HasPrefix(arg, home+string(filepath.Separator)) {
		return "~" + arg[len(home):]
	}
	// --report=/home/x/out.xlsx
	if i := strings.IndexByte(arg, '='); i > 0 {
		return arg[:i+1] + redactPath(arg[i+1:], home)
	}
	return arg
}
