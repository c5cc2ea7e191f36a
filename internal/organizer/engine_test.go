package organizer

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/klytics/dirkit/internal/categories"
)

func TestOrganizeSortsByCategory(t *testing.T) {
	e, fsys, _ := newMemEngine(t)
	createTestFile(t, fsys, filepath.Join(root, "a.jpg"), "image")
	createTestFile(t, fsys, filepath.Join(root, "b.txt"), "text")
	createTestFile(t, fsys, filepath.Join(root, "c.unknownext"), "other")

	res, err := e.Organize(root)
	if err != nil {
		t.Fatal(err)
	}
	if res.Moved != 3 || res.Failed != 0 {
		t.Errorf("expected 3 moved 0 failed, got %d moved %d failed", res.Moved, res.Failed)
	}

	assertExists(t, fsys, filepath.Join(root, "Images", "a.jpg"))
	assertExists(t, fsys, filepath.Join(root, "Documents", "b.txt"))
	assertExists(t, fsys, filepath.Join(root, "Others", "c.unknownext"))
	for _, name := range []string{"a.jpg", "b.txt", "c.unknownext"} {
		assertMissing(t, fsys, filepath.Join(root, name))
	}

	if got := e.Ledger(); len(got) != 3 {
		t.Errorf("expected 3 ledger records, got %d", len(got))
	}
}

func TestOrganizeOutcomes(t *testing.T) {
	e, fsys, _ := newMemEngine(t)
	createTestFile(t, fsys, filepath.Join(root, "song.MP3"), "x")

	res, err := e.Organize(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(res.Files))
	}
	out := res.Files[0]
	if out.Status != StatusMoved || out.Category != "Music" {
		t.Errorf("unexpected outcome %+v", out)
	}
	if out.Destination != filepath.Join(root, "Music", "song.MP3") {
		t.Errorf("destination = %q", out.Destination)
	}
	if !reflect.DeepEqual(res.Folders, []string{"Music"}) {
		t.Errorf("folders = %v, want [Music]", res.Folders)
	}
}

func TestOrganizeCollision(t *testing.T) {
	e, fsys, rec := newMemEngine(t)
	createTestFile(t, fsys, filepath.Join(root, "Images", "a.jpg"), "old")
	createTestFile(t, fsys, filepath.Join(root, "a.jpg"), "new")

	res, err := e.Organize(root)
	if err != nil {
		t.Fatal(err)
	}
	if res.Moved != 1 {
		t.Fatalf("expected 1 moved, got %d", res.Moved)
	}

	old, _ := afero.ReadFile(fsys, filepath.Join(root, "Images", "a.jpg"))
	if string(old) != "old" {
		t.Errorf("existing file was overwritten: %q", old)
	}
	incoming, err := afero.ReadFile(fsys, filepath.Join(root, "Images", "a (1).jpg"))
	if err != nil {
		t.Fatalf("expected Images/a (1).jpg: %v", err)
	}
	if string(incoming) != "new" {
		t.Errorf("Images/a (1).jpg = %q, want new", incoming)
	}
	if !rec.has(LevelWarn, "already exists") {
		t.Error("expected a collision warning")
	}
	if len(res.Folders) != 0 {
		t.Errorf("Images already existed, folders = %v", res.Folders)
	}
}

func TestOrganizeEmptyDirectory(t *testing.T) {
	e, fsys, rec := newMemEngine(t)
	other := filepath.Join(root, "other")
	createTestFile(t, fsys, filepath.Join(other, "a.jpg"), "x")
	if _, err := e.Organize(other); err != nil {
		t.Fatal(err)
	}

	empty := filepath.Join(root, "empty")
	if err := fsys.MkdirAll(empty, 0755); err != nil {
		t.Fatal(err)
	}
	res, err := e.Organize(empty)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 0 || res.Moved != 0 || res.Failed != 0 {
		t.Errorf("expected zero counts, got %+v", res)
	}
	if !rec.has(LevelInfo, "No files to organize") {
		t.Error("expected 'No files to organize' event")
	}
	if !e.CanUndo() {
		t.Error("empty run must not clear the previous ledger")
	}
}

func TestOrganizeDirectoryUnavailable(t *testing.T) {
	e, fsys, _ := newMemEngine(t)
	file := createTestFile(t, fsys, filepath.Join(root, "file.txt"), "x")

	for _, dir := range []string{filepath.Join(root, "missing"), file} {
		res, err := e.Organize(dir)
		if !errors.Is(err, ErrDirectoryUnavailable) {
			t.Errorf("Organize(%q) error = %v, want ErrDirectoryUnavailable", dir, err)
		}
		if res != nil {
			t.Errorf("expected nil result, got %+v", res)
		}
	}
}

func TestOrganizeSkipsSubdirectories(t *testing.T) {
	e, fsys, _ := newMemEngine(t)
	createTestFile(t, fsys, filepath.Join(root, "Vacation", "beach.jpg"), "x")
	createTestFile(t, fsys, filepath.Join(root, "top.png"), "x")

	res, err := e.Organize(root)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 {
		t.Errorf("expected only the top-level file, got %d", res.Total)
	}
	assertExists(t, fsys, filepath.Join(root, "Vacation", "beach.jpg"))
	assertExists(t, fsys, filepath.Join(root, "Images", "top.png"))
}

func TestOrganizeContinuesAfterMoveFailure(t *testing.T) {
	mem := afero.NewMemMapFs()
	fsys := &failingFs{Fs: mem, renameFails: map[string]bool{"locked.pdf": true}}
	rec := &recorder{}
	e := New(WithFs(fsys), WithObserver(rec))

	createTestFile(t, mem, filepath.Join(root, "a.jpg"), "x")
	createTestFile(t, mem, filepath.Join(root, "locked.pdf"), "x")
	createTestFile(t, mem, filepath.Join(root, "z.zip"), "x")

	res, err := e.Organize(root)
	if err != nil {
		t.Fatal(err)
	}
	if res.Moved != 2 || res.Failed != 1 {
		t.Fatalf("expected 2 moved 1 failed, got %d/%d", res.Moved, res.Failed)
	}

	failures := res.Failures()
	if len(failures) != 1 || failures[0].Name != "locked.pdf" {
		t.Fatalf("unexpected failures %+v", failures)
	}
	if !errors.Is(failures[0].Err, ErrMoveFailed) {
		t.Errorf("failure error %v should wrap ErrMoveFailed", failures[0].Err)
	}
	if failures[0].Reason != "permission denied" {
		t.Errorf("reason = %q", failures[0].Reason)
	}
	assertExists(t, mem, filepath.Join(root, "locked.pdf"))
	assertExists(t, mem, filepath.Join(root, "Archives", "z.zip"))

	if got := len(e.Ledger()); got != 2 {
		t.Errorf("ledger should hold only successful moves, got %d", got)
	}
	if !rec.has(LevelError, "Failed: locked.pdf") {
		t.Error("expected failure event")
	}
}

func TestOrganizeCategoryFolderIsFile(t *testing.T) {
	e, fsys, _ := newMemEngine(t)
	createTestFile(t, fsys, filepath.Join(root, "Music"), "not a folder")
	// Beat.mp3 sorts before Music, so the folder is still blocked when it is processed.
	createTestFile(t, fsys, filepath.Join(root, "Beat.mp3"), "x")

	res, err := e.Organize(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range res.Files {
		switch f.Name {
		case "Beat.mp3":
			if f.Status != StatusFailed || !strings.Contains(f.Reason, "not a folder") {
				t.Errorf("Beat.mp3 should fail while Music is a file, got %+v", f)
			}
		case "Music":
			if f.Status != StatusMoved || f.Category != categories.Fallback {
				t.Errorf("extensionless Music file should go to Others, got %+v", f)
			}
		}
	}
	assertExists(t, fsys, filepath.Join(root, "Beat.mp3"))
}

func TestOrganizeProgress(t *testing.T) {
	e, fsys, rec := newMemEngine(t)
	for _, name := range []string{"1.txt", "2.txt", "3.txt"} {
		createTestFile(t, fsys, filepath.Join(root, name), "x")
	}
	if _, err := e.Organize(root); err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if !reflect.DeepEqual(rec.progress, want) {
		t.Errorf("progress = %v, want %v", rec.progress, want)
	}
}

func TestOrganizeSkipHidden(t *testing.T) {
	e, fsys, _ := newMemEngine(t, WithSkipHidden(true))
	createTestFile(t, fsys, filepath.Join(root, ".DS_Store"), "x")
	createTestFile(t, fsys, filepath.Join(root, "a.gif"), "x")

	res, err := e.Organize(root)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 {
		t.Errorf("expected hidden file skipped, total = %d", res.Total)
	}
	assertExists(t, fsys, filepath.Join(root, ".DS_Store"))
}

func TestOrganizeCustomTable(t *testing.T) {
	table, err := categories.New([]categories.Category{
		{Name: "Raw", Extensions: []string{".cr2"}},
		{Name: "Misc"},
	})
	if err != nil {
		t.Fatal(err)
	}
	e, fsys, _ := newMemEngine(t, WithTable(table))
	createTestFile(t, fsys, filepath.Join(root, "IMG_1.CR2"), "x")
	createTestFile(t, fsys, filepath.Join(root, "a.jpg"), "x")

	if _, err := e.Organize(root); err != nil {
		t.Fatal(err)
	}
	assertExists(t, fsys, filepath.Join(root, "Raw", "IMG_1.CR2"))
	assertExists(t, fsys, filepath.Join(root, "Misc", "a.jpg"))
}

func TestPlanLeavesFilesInPlace(t *testing.T) {
	e, fsys, _ := newMemEngine(t)
	createTestFile(t, fsys, filepath.Join(root, "Images", "a.jpg"), "old")
	createTestFile(t, fsys, filepath.Join(root, "a.jpg"), "new")
	createTestFile(t, fsys, filepath.Join(root, "notes.txt"), "x")

	res, err := e.Plan(root)
	if err != nil {
		t.Fatal(err)
	}
	if !res.DryRun || res.Moved != 2 {
		t.Errorf("unexpected plan %+v", res)
	}
	for _, f := range res.Files {
		if f.Status != StatusPlanned {
			t.Errorf("%s status = %s, want planned", f.Name, f.Status)
		}
	}
	if res.Files[0].Destination != filepath.Join(root, "Images", "a (1).jpg") {
		t.Errorf("planned destination = %q", res.Files[0].Destination)
	}
	if !reflect.DeepEqual(res.Folders, []string{"Documents"}) {
		t.Errorf("folders = %v, want [Documents]", res.Folders)
	}

	assertExists(t, fsys, filepath.Join(root, "a.jpg"))
	assertExists(t, fsys, filepath.Join(root, "notes.txt"))
	assertMissing(t, fsys, filepath.Join(root, "Documents"))
	if e.CanUndo() {
		t.Error("plan must not touch the ledger")
	}
}

func TestPlanAvoidsPlannedCollisions(t *testing.T) {
	e, fsys, _ := newMemEngine(t)
	createTestFile(t, fsys, filepath.Join(root, "Images", "a.jpg"), "x")
	createTestFile(t, fsys, filepath.Join(root, "a (1).jpg"), "x")
	createTestFile(t, fsys, filepath.Join(root, "a.jpg"), "x")

	res, err := e.Plan(root)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for _, f := range res.Files {
		if seen[f.Destination] {
			t.Errorf("two files planned for %s", f.Destination)
		}
		seen[f.Destination] = true
	}
}

func TestSelect(t *testing.T) {
	e, fsys, rec := newMemEngine(t)
	createTestFile(t, fsys, filepath.Join(root, "a.jpg"), "x")

	got, err := e.Select(root)
	if err != nil {
		t.Fatal(err)
	}
	if got != root || e.Selected() != root {
		t.Errorf("selected = %q", e.Selected())
	}
	if !rec.has(LevelInfo, "Selected folder") {
		t.Error("expected selection event")
	}

	if _, err := e.Select(filepath.Join(root, "nope")); !errors.Is(err, ErrDirectoryUnavailable) {
		t.Errorf("expected ErrDirectoryUnavailable, got %v", err)
	}
	if e.Selected() != root {
		t.Error("failed select must keep the previous selection")
	}

	res, err := e.OrganizeSelected()
	if err != nil {
		t.Fatal(err)
	}
	if res.Moved != 1 {
		t.Errorf("expected 1 moved, got %d", res.Moved)
	}
}

func TestSelectFrom(t *testing.T) {
	e, _, _ := newMemEngine(t)
	got, err := e.SelectFrom(context.Background(), StaticSelector{Dir: root})
	if err != nil {
		t.Fatal(err)
	}
	if got != root {
		t.Errorf("SelectFrom = %q", got)
	}
}

func TestOrganizeSelectedWithoutSelection(t *testing.T) {
	e, _, _ := newMemEngine(t)
	if _, err := e.OrganizeSelected(); !errors.Is(err, ErrNoDirectory) {
		t.Errorf("expected ErrNoDirectory, got %v", err)
	}
}

type denyGate struct{}

func (denyGate) Check(dir string) error { return ErrDirectoryUnavailable }

func TestSelectUsesGate(t *testing.T) {
	e, _, _ := newMemEngine(t, WithGate(denyGate{}))
	if _, err := e.Select(root); !errors.Is(err, ErrDirectoryUnavailable) {
		t.Errorf("expected gate rejection, got %v", err)
	}
}

func TestBusyWhileRunning(t *testing.T) {
	fsys := afero.NewMemMapFs()
	createTestFile(t, fsys, filepath.Join(root, "a.jpg"), "x")

	var e *Engine
	var nested []error
	e = New(WithFs(fsys), WithObserver(ObserverFuncs{
		OnProgress: func(current, total int) {
			_, err := e.Organize(root)
			nested = append(nested, err)
			_, err = e.Undo()
			nested = append(nested, err)
			if !e.State().Running {
				t.Error("State should report a running operation")
			}
		},
	}))

	if _, err := e.Organize(root); err != nil {
		t.Fatal(err)
	}
	if len(nested) != 2 {
		t.Fatalf("expected 2 nested calls, got %d", len(nested))
	}
	for _, err := range nested {
		if !errors.Is(err, ErrBusy) {
			t.Errorf("nested call error = %v, want ErrBusy", err)
		}
	}
	if e.State().Running {
		t.Error("engine should be idle after the run")
	}
}

func TestEventTimestamps(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e, fsys, rec := newMemEngine(t, WithClock(func() time.Time { return at }))
	createTestFile(t, fsys, filepath.Join(root, "a.jpg"), "x")
	if _, err := e.Organize(root); err != nil {
		t.Fatal(err)
	}
	if len(rec.events) == 0 {
		t.Fatal("expected events")
	}
	for _, ev := range rec.events {
		if !ev.Time.Equal(at) {
			t.Errorf("event %q time = %v", ev.Message, ev.Time)
		}
	}
	if !rec.has(LevelInfo, "Created folder Images") || !rec.has(LevelInfo, "a.jpg -> Images") {
		t.Errorf("missing expected events: %+v", rec.events)
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "warn" || Level(42).String() != "level(42)" {
		t.Errorf("unexpected level strings %q %q", LevelWarn, Level(42))
	}
}
