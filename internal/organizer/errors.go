package organizer

import "errors"

var (
	// ErrDirectoryUnavailable means the target directory is missing, is not a
	// directory, or cannot be listed. It is the only error that aborts an organize run.
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrMoveFailed is recorded per file when a move (or its folder creation) fails.
	ErrMoveFailed = errors.New("move failed")

	// ErrUndoSourceMissing is recorded when a moved file is no longer at its recorded destination.
	ErrUndoSourceMissing = errors.New("file not found for undo")

	// ErrCleanupFailed is logged when an empty category folder cannot be removed.
	ErrCleanupFailed = errors.New("cleanup failed")

	// ErrBusy is returned when an operation starts while another is still running.
	ErrBusy = errors.New("another operation is in progress")

	// ErrNoDirectory is returned when an operation needs a selected directory and none is set.
	ErrNoDirectory = errors.New("no directory selected")
)
