package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/klytics/dirkit/internal/organizer"
	"github.com/klytics/dirkit/internal/progress"
)

// Console prints engine events as coloured lines and drives a progress bar.
// Debug events are shown only when Verbose is set.
type Console struct {
	Out     io.Writer
	Verbose bool
	Bar     *progress.Bar

	mu sync.Mutex
}

// NewConsole returns a Console on stdout with a stderr progress bar labelled label.
func NewConsole(label string, verbose bool) *Console {
	return &Console{
		Out:     os.Stdout,
		Verbose: verbose,
		Bar:     progress.New(label),
	}
}

func (c *Console) Log(e organizer.Event) {
	if e.Level == organizer.LevelDebug && !c.Verbose {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Bar != nil {
		c.Bar.Finish("")
	}
	switch e.Level {
	case organizer.LevelError:
		color.New(color.FgRed).Fprintln(c.Out, e.Message)
	case organizer.LevelWarn:
		color.New(color.FgYellow).Fprintln(c.Out, e.Message)
	case organizer.LevelDebug:
		color.New(color.FgHiBlack).Fprintln(c.Out, e.Message)
	default:
		fmt.Fprintln(c.Out, e.Message)
	}
}

func (c *Console) Progress(current, total int) {
	if c.Bar == nil {
		return
	}
	c.Bar.Update(current, total, "")
}

// Done clears the progress bar.
func (c *Console) Done() {
	if c.Bar != nil {
		c.Bar.Finish("")
	}
}

// Collector keeps engine events so they can be attached to a JSON result.
type Collector struct {
	mu     sync.Mutex
	events []organizer.Event
}

func (c *Collector) Log(e organizer.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *Collector) Progress(int, int) {}

// Events returns the events logged so far.
func (c *Collector) Events() []organizer.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]organizer.Event(nil), c.events...)
}
