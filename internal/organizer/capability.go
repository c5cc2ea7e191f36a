package organizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FolderSelector obtains the directory to organize, e.g. from a command-line
// argument or an interactive prompt.
type FolderSelector interface {
	SelectFolder(ctx context.Context) (string, error)
}

// PermissionGate decides whether a directory may be organized.
type PermissionGate interface {
	Check(dir string) error
}

// StaticSelector always selects Dir, or the working directory when Dir is empty.
type StaticSelector struct {
	Dir string
}

func (s StaticSelector) SelectFolder(_ context.Context) (string, error) {
	if s.Dir != "" {
		return s.Dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("could not determine working directory: %w", err)
	}
	return wd, nil
}

// DirGate admits directories that exist and can be listed on Fs.
type DirGate struct {
	Fs afero.Fs
}

func (g DirGate) Check(dir string) error {
	info, err := g.Fs.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: could not access %s: %v", ErrDirectoryUnavailable, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDirectoryUnavailable, dir)
	}

	f, err := g.Fs.Open(dir)
	if err != nil {
		return fmt.Errorf("%w: could not open %s: %v", ErrDirectoryUnavailable, dir, err)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: could not list %s: %v", ErrDirectoryUnavailable, dir, err)
	}
	return nil
}

// Select checks dir through the engine's gate and makes it the selected folder.
func (e *Engine) Select(dir string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: could not resolve %s: %v", ErrDirectoryUnavailable, dir, err)
	}
	if err := e.gate.Check(root); err != nil {
		e.logf(LevelError, "Error: %v", err)
		return "", err
	}

	e.mu.Lock()
	e.selected = root
	e.mu.Unlock()

	e.logf(LevelInfo, "Selected folder: %s", root)
	return root, nil
}

// SelectFrom asks sel for a directory and selects it.
func (e *Engine) SelectFrom(ctx context.Context, sel FolderSelector) (string, error) {
	dir, err := sel.SelectFolder(ctx)
	if err != nil {
		return "", err
	}
	return e.Select(dir)
}
