package organizer

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Undo moves every file of the latest organize run back to where it came from, in
// the order the moves were made, then removes category folders left empty. The
// ledger is drained before the first restore and is empty afterwards whatever the
// per-file outcome; failed records are not retried. With nothing to undo it
// returns a zero result.
//
// A file whose original path has since been taken is restored under a
// "name (n).ext" alternative instead of overwriting.
func (e *Engine) Undo() (*UndoResult, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	e.mu.Lock()
	records := e.ledger.DrainAll()
	dir := e.ledgerDir
	e.ledgerDir = ""
	e.mu.Unlock()

	res := &UndoResult{Directory: dir}
	if len(records) == 0 {
		e.logf(LevelInfo, "Nothing to undo.")
		return res, nil
	}

	for i, rec := range records {
		out := e.restore(rec)
		res.Records = append(res.Records, out)
		if out.Status == StatusRestored {
			res.Restored++
		} else {
			res.Failed++
		}
		e.observer.Progress(i+1, len(records))
	}

	if res.Failed > 0 {
		e.logf(LevelWarn, "Undo finished: %d restored, %d failed.", res.Restored, res.Failed)
	} else {
		e.logf(LevelInfo, "Undo finished: %d restored.", res.Restored)
	}

	if dir != "" {
		res.Cleanup = e.cleanup(dir)
	}
	return res, nil
}

func (e *Engine) restore(rec MoveRecord) RestoreOutcome {
	out := RestoreOutcome{
		Name:        filepath.Base(rec.Original),
		Source:      rec.Destination,
		Destination: rec.Original,
	}

	if !exists(e.fs, rec.Destination) {
		out.Status = StatusFailed
		out.Reason = ErrUndoSourceMissing.Error()
		out.Err = fmt.Errorf("%w: %s", ErrUndoSourceMissing, rec.Destination)
		e.logf(LevelError, "Undo failed: %s: %s", filepath.Base(rec.Destination), out.Reason)
		return out
	}

	if err := e.fs.MkdirAll(filepath.Dir(rec.Original), 0755); err != nil {
		return e.failRestore(out, fmt.Errorf("could not recreate %s: %w", filepath.Dir(rec.Original), err))
	}

	target := UniquePath(e.fs, rec.Original)
	if target != rec.Original {
		e.logf(LevelWarn, "%s already exists, restoring as %s", out.Name, filepath.Base(target))
	}
	out.Destination = target

	if err := e.fs.Rename(rec.Destination, target); err != nil {
		return e.failRestore(out, err)
	}

	out.Status = StatusRestored
	e.logf(LevelInfo, "Undo: %s restored.", filepath.Base(target))
	return out
}

func (e *Engine) failRestore(out RestoreOutcome, err error) RestoreOutcome {
	out.Status = StatusFailed
	out.Reason = reason(err)
	out.Err = fmt.Errorf("%w: %s: %w", ErrMoveFailed, out.Name, err)
	e.logf(LevelError, "Undo failed: %s: %s", out.Name, out.Reason)
	return out
}

// Cleanup removes the empty category folders directly inside dir. Folders that are
// not named after a category, or that hold anything, are left alone. Removal
// errors are logged and reported in the result, never returned.
func (e *Engine) Cleanup(dir string) (*CleanupResult, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: could not resolve %s: %v", ErrDirectoryUnavailable, dir, err)
	}
	return e.cleanup(root), nil
}

func (e *Engine) cleanup(root string) *CleanupResult {
	res := &CleanupResult{Directory: root, Removed: []string{}}

	for _, name := range e.table.Names() {
		path := filepath.Join(root, name)
		info, err := e.fs.Stat(path)
		if err != nil {
			if !isNotExist(err) {
				e.cleanupFailed(res, name, err)
			}
			continue
		}
		if !info.IsDir() {
			continue
		}

		empty, err := afero.IsEmpty(e.fs, path)
		if err != nil {
			e.cleanupFailed(res, name, err)
			continue
		}
		if !empty {
			continue
		}

		if err := e.fs.Remove(path); err != nil {
			e.cleanupFailed(res, name, err)
			continue
		}
		res.Removed = append(res.Removed, name)
		e.logf(LevelInfo, "Removed empty folder %s", name)
	}
	return res
}

func (e *Engine) cleanupFailed(res *CleanupResult, name string, err error) {
	wrapped := fmt.Errorf("%w: %s: %s", ErrCleanupFailed, name, reason(err))
	res.Failed = append(res.Failed, wrapped.Error())
	e.logf(LevelWarn, "Could not remove %s: %s", name, reason(err))
}
