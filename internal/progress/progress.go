// Package progress draws a single-line progress bar for long organize and undo runs.
// Output goes to stderr so stdout stays clean for --json and pipes.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Bar renders an ASCII progress bar.
type Bar struct {
	Label   string
	Width   int
	Enabled bool
	Out     io.Writer

	mu      sync.Mutex
	current int
	total   int
	drawn   bool
}

// New creates a bar writing to stderr.
// It is disabled when stderr is not a TTY, DIRKIT_NO_PROGRESS=1 or DIRKIT_JSON=true.
func New(label string) *Bar {
	return &Bar{
		Label:   label,
		Width:   30,
		Enabled: Enabled(),
		Out:     os.Stderr,
	}
}

// Update moves the bar to current of total and redraws it with status.
func (b *Bar) Update(current, total int, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if total < 0 {
		total = 0
	}
	if current > total {
		current = total
	}
	b.current, b.total = current, total
	b.render(status)
}

// Finish clears the bar. A non-empty summary is printed in its place.
func (b *Bar) Finish(summary string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.Enabled || !b.drawn {
		return
	}
	b.drawn = false
	if summary == "" {
		fmt.Fprint(b.Out, "\r\033[K")
		return
	}
	fmt.Fprintf(b.Out, "\r\033[K✓ %s\n", summary)
}

// Pct returns the bar position from 0 to 100.
func (b *Bar) Pct() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.total == 0 {
		return 0
	}
	return float64(b.current) / float64(b.total) * 100
}

// Current returns the last position and total passed to Update.
func (b *Bar) Current() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.total
}

func (b *Bar) render(status string) {
	if !b.Enabled {
		return
	}

	width := b.Width
	if width <= 0 {
		width = 30
	}
	filled := 0
	if b.total > 0 {
		filled = b.current * width / b.total
	}

	bar := strings.Repeat("=", filled) + strings.Repeat(" ", width-filled)
	fmt.Fprintf(b.Out, "\r\033[K%s [%s] %d/%d  %s", b.Label, bar, b.current, b.total, status)
	b.drawn = true
}

// Enabled reports whether progress output is wanted in this process.
func Enabled() bool {
	if os.Getenv("DIRKIT_NO_PROGRESS") == "1" {
		return false
	}
	if os.Getenv("DIRKIT_JSON") == "true" {
		return false
	}
	return isTTY()
}

func isTTY() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
