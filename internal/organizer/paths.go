package organizer

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// UniquePath returns desired if nothing exists there, otherwise the first free
// "name (n).ext" in the same directory, counting from 1. Every candidate is checked
// against the filesystem, so a concurrent writer can still race the caller.
func UniquePath(fsys afero.Fs, desired string) string {
	return uniquePath(func(p string) bool { return exists(fsys, p) }, desired)
}

func uniquePath(taken func(string) bool, desired string) string {
	if !taken(desired) {
		return desired
	}

	dir := filepath.Dir(desired)
	name := filepath.Base(desired)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		// dotfiles such as ".env" keep their whole name as the stem
		base, ext = name, ""
	}

	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, i, ext))
		if !taken(candidate) {
			return candidate
		}
	}
}

// exists reports an entry at path. A permission error counts as existing so an
// unreadable path is never chosen as a destination.
func exists(fsys afero.Fs, path string) bool {
	var err error
	if lst, ok := fsys.(afero.Lstater); ok {
		_, _, err = lst.LstatIfPossible(path)
	} else {
		_, err = fsys.Stat(path)
	}
	return err == nil || errors.Is(err, iofs.ErrPermission)
}
