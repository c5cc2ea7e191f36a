package organizer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

const root = "/downloads"

type recorder struct {
	events   []Event
	progress [][2]int
}

func (r *recorder) Log(e Event) { r.events = append(r.events, e) }

func (r *recorder) Progress(current, total int) {
	r.progress = append(r.progress, [2]int{current, total})
}

func (r *recorder) has(level Level, substr string) bool {
	for _, e := range r.events {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// failingFs wraps an afero.Fs and refuses selected operations.
type failingFs struct {
	afero.Fs
	renameFails map[string]bool // by base name of the source
	removeFails bool
}

func (f *failingFs) Rename(oldname, newname string) error {
	if f.renameFails[filepath.Base(oldname)] {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrPermission}
	}
	return f.Fs.Rename(oldname, newname)
}

func (f *failingFs) Remove(name string) error {
	if f.removeFails {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Remove(name)
}

func newMemEngine(t *testing.T, opts ...Option) (*Engine, afero.Fs, *recorder) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	opts = append([]Option{WithFs(fsys), WithObserver(rec)}, opts...)
	return New(opts...), fsys, rec
}

func createTestFile(t *testing.T, fsys afero.Fs, path, content string) string {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fsys, path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func assertExists(t *testing.T, fsys afero.Fs, path string) {
	t.Helper()
	if ok, _ := afero.Exists(fsys, path); !ok {
		t.Errorf("expected %s to exist", path)
	}
}

func assertMissing(t *testing.T, fsys afero.Fs, path string) {
	t.Helper()
	if ok, _ := afero.Exists(fsys, path); ok {
		t.Errorf("expected %s to be gone", path)
	}
}

// snapshot maps every regular file below dir (relative path) to its content.
func snapshot(t *testing.T, fsys afero.Fs, dir string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := afero.Walk(fsys, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		files[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func listNames(t *testing.T, fsys afero.Fs, dir string) []string {
	t.Helper()
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	sort.Strings(names)
	return names
}
