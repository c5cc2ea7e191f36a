// Package organizer sorts the files of a directory into category folders and can
// put them back.
//
// An Engine owns the selected folder and the move ledger of the latest run. All
// filesystem access goes through an afero.Fs so callers and tests can swap the
// backing filesystem. Operations are synchronous; starting one while another is
// in flight returns ErrBusy.
package organizer

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/klytics/dirkit/internal/categories"
)

// Engine runs organize, undo and cleanup against one filesystem.
type Engine struct {
	fs         afero.Fs
	table      *categories.Table
	observer   Observer
	gate       PermissionGate
	now        func() time.Time
	skipHidden bool

	running atomic.Bool

	mu        sync.Mutex
	selected  string
	ledger    Ledger
	ledgerDir string
}

// Option configures an Engine.
type Option func(*Engine)

// WithFs sets the filesystem. The default is the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(e *Engine) { e.fs = fsys }
}

// WithTable sets the category table. The default is categories.Default().
func WithTable(t *categories.Table) Option {
	return func(e *Engine) { e.table = t }
}

// WithObserver sets the receiver of log and progress events.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithGate sets the check applied by Select. The default is a DirGate on the engine's Fs.
func WithGate(g PermissionGate) Option {
	return func(e *Engine) { e.gate = g }
}

// WithClock sets the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSkipHidden leaves dotfiles in place when organizing.
func WithSkipHidden(skip bool) Option {
	return func(e *Engine) { e.skipHidden = skip }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		fs:       afero.NewOsFs(),
		table:    categories.Default(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	if e.gate == nil {
		e.gate = DirGate{Fs: e.fs}
	}
	return e
}

// Table returns the engine's category table.
func (e *Engine) Table() *categories.Table {
	return e.table
}

// State describes the engine between operations.
type State struct {
	Selected  string `json:"selected,omitempty"`
	LedgerDir string `json:"ledgerDir,omitempty"`
	Pending   int    `json:"pending"`
	Running   bool   `json:"running"`
}

// State returns the selected folder and how many moves can be undone.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Selected:  e.selected,
		LedgerDir: e.ledgerDir,
		Pending:   e.ledger.Len(),
		Running:   e.running.Load(),
	}
}

// Selected returns the selected folder, or "" if none.
func (e *Engine) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// CanUndo reports whether the ledger holds moves.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Len() > 0
}

// Ledger returns a copy of the pending move records.
func (e *Engine) Ledger() []MoveRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Records()
}

func (e *Engine) begin() error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (e *Engine) end() {
	e.running.Store(false)
}

// Organize moves every file directly inside dir into its category folder.
// It fails only when dir cannot be listed; per-file failures are reported in the result.
// A run over a non-empty directory replaces the ledger, so only its moves can be undone.
func (e *Engine) Organize(dir string) (*OrganizeResult, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()
	return e.organize(dir, false)
}

// Plan reports where Organize would move each file without touching the
// filesystem or the ledger.
func (e *Engine) Plan(dir string) (*OrganizeResult, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()
	return e.organize(dir, true)
}

// OrganizeSelected organizes the selected folder.
func (e *Engine) OrganizeSelected() (*OrganizeResult, error) {
	dir := e.Selected()
	if dir == "" {
		return nil, ErrNoDirectory
	}
	return e.Organize(dir)
}

type run struct {
	root    string
	dryRun  bool
	folders map[string]bool
	planned map[string]bool
	result  *OrganizeResult
}

func (e *Engine) organize(dir string, dryRun bool) (*OrganizeResult, error) {
	root, files, err := e.listFiles(dir)
	if err != nil {
		e.logf(LevelError, "Error: %v", err)
		return nil, err
	}

	r := &run{
		root:    root,
		dryRun:  dryRun,
		folders: make(map[string]bool),
		planned: make(map[string]bool),
		result:  &OrganizeResult{Directory: root, DryRun: dryRun, Total: len(files)},
	}

	if len(files) == 0 {
		e.logf(LevelInfo, "No files to organize.")
		return r.result, nil
	}

	if !dryRun {
		e.mu.Lock()
		e.ledger.Clear()
		e.ledgerDir = root
		e.selected = root
		e.mu.Unlock()
	}

	for i, name := range files {
		out := e.organizeFile(r, name)
		r.result.Files = append(r.result.Files, out)
		switch out.Status {
		case StatusMoved, StatusPlanned:
			r.result.Moved++
		case StatusFailed:
			r.result.Failed++
		}
		e.observer.Progress(i+1, len(files))
	}

	switch {
	case dryRun:
		e.logf(LevelInfo, "Dry run: %d files would be moved, %d cannot be.", r.result.Moved, r.result.Failed)
	case r.result.Failed > 0:
		e.logf(LevelWarn, "Organized %d files, %d failed.", r.result.Moved, r.result.Failed)
	default:
		e.logf(LevelInfo, "Organized %d files.", r.result.Moved)
	}
	return r.result, nil
}

// listFiles returns the absolute directory and the names of the non-directory
// entries in it, in name order.
func (e *Engine) listFiles(dir string) (string, []string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("%w: could not resolve %s: %v", ErrDirectoryUnavailable, dir, err)
	}

	info, err := e.fs.Stat(root)
	if err != nil {
		return "", nil, fmt.Errorf("%w: could not access %s: %v", ErrDirectoryUnavailable, root, err)
	}
	if !info.IsDir() {
		return "", nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryUnavailable, root)
	}

	entries, err := afero.ReadDir(e.fs, root)
	if err != nil {
		return "", nil, fmt.Errorf("%w: could not list %s: %v", ErrDirectoryUnavailable, root, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if e.skipHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return root, names, nil
}

func (e *Engine) organizeFile(r *run, name string) FileOutcome {
	src := filepath.Join(r.root, name)
	category := e.table.Classify(filepath.Ext(name))
	out := FileOutcome{Name: name, Source: src, Category: category}

	destDir := filepath.Join(r.root, category)
	if err := e.ensureFolder(r, destDir, category); err != nil {
		return e.failFile(out, err)
	}

	desired := filepath.Join(destDir, name)
	dest := uniquePath(func(p string) bool {
		return r.planned[p] || exists(e.fs, p)
	}, desired)
	if dest != desired {
		e.logf(LevelWarn, "%s already exists in %s, using %s", name, category, filepath.Base(dest))
	}
	out.Destination = dest

	if r.dryRun {
		r.planned[dest] = true
		out.Status = StatusPlanned
		e.logf(LevelInfo, "%s -> %s (dry run)", name, category)
		return out
	}

	if err := e.fs.Rename(src, dest); err != nil {
		return e.failFile(out, err)
	}

	e.mu.Lock()
	e.ledger.Append(MoveRecord{Destination: dest, Original: src})
	e.mu.Unlock()

	out.Status = StatusMoved
	e.logf(LevelInfo, "%s -> %s", name, category)
	return out
}

// ensureFolder creates a category folder the first time a run needs it.
func (e *Engine) ensureFolder(r *run, dir, category string) error {
	if r.folders[dir] {
		return nil
	}

	info, err := e.fs.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%s exists and is not a folder", category)
	case err == nil:
	case r.dryRun:
		r.result.Folders = append(r.result.Folders, category)
		e.logf(LevelInfo, "Would create folder %s", category)
	default:
		if err := e.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create folder %s: %w", category, err)
		}
		r.result.Folders = append(r.result.Folders, category)
		e.logf(LevelInfo, "Created folder %s", category)
	}

	r.folders[dir] = true
	return nil
}

func (e *Engine) failFile(out FileOutcome, err error) FileOutcome {
	out.Status = StatusFailed
	out.Reason = reason(err)
	out.Err = fmt.Errorf("%w: %s: %w", ErrMoveFailed, out.Name, err)
	e.logf(LevelError, "Failed: %s: %s", out.Name, out.Reason)
	return out
}

// reason strips the path noise from a bare *os.PathError or *os.LinkError so log
// lines stay readable.
func reason(err error) string {
	switch e := err.(type) {
	case *os.PathError:
		return e.Err.Error()
	case *os.LinkError:
		return e.Err.Error()
	}
	return err.Error()
}

func isNotExist(err error) bool {
	return errors.Is(err, iofs.ErrNotExist)
}
