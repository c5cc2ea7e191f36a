package organizer

import (
	"fmt"
	"time"
)

// Level is the severity of a log event.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Event is a single human-readable log line emitted by the engine.
type Event struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// Observer receives engine events synchronously, on the goroutine running the
// operation. Implementations decide how to render or marshal them.
type Observer interface {
	Log(Event)
	Progress(current, total int)
}

// ObserverFuncs adapts plain functions to an Observer. Nil fields are ignored.
type ObserverFuncs struct {
	OnLog      func(Event)
	OnProgress func(current, total int)
}

func (o ObserverFuncs) Log(e Event) {
	if o.OnLog != nil {
		o.OnLog(e)
	}
}

func (o ObserverFuncs) Progress(current, total int) {
	if o.OnProgress != nil {
		o.OnProgress(current, total)
	}
}

type nopObserver struct{}

func (nopObserver) Log(Event)        {}
func (nopObserver) Progress(int, int) {}

func (e *Engine) logf(level Level, format string, args ...any) {
	e.observer.Log(Event{
		Time:    e.now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

// MarshalText renders the level by name in JSON output.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
