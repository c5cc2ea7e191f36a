package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{Directory: dir, DebounceMs: 100})
	if err != nil {
		t.Fatal(err)
	}
	defer w.watcher.Close()

	if w.Config.Directory != dir {
		t.Errorf("directory = %q, want %q", w.Config.Directory, dir)
	}
}

func TestDefaultDebounce(t *testing.T) {
	w, err := New(Config{Directory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer w.watcher.Close()

	if w.Config.DebounceMs != 1000 {
		t.Errorf("expected default debounce 1000, got %d", w.Config.DebounceMs)
	}
}

func TestIsTemporary(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"report.pdf", false},
		{"movie.mkv.part", true},
		{"setup.exe.crdownload", true},
		{"Photo.JPG.Download", true},
		{"~$budget.xlsx", true},
		{".~lock.notes.odt#", true},
		{"notes.txt", false},
	}
	for _, tt := range tests {
		if got := IsTemporary(tt.name); got != tt.want {
			t.Errorf("IsTemporary(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWantsSkipsDirectoriesAndMissing(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{Directory: dir, SkipHidden: true})
	if err != nil {
		t.Fatal(err)
	}
	defer w.watcher.Close()

	os.Mkdir(filepath.Join(dir, "Images"), 0755)
	os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0644)

	if w.wants(filepath.Join(dir, "Images")) {
		t.Error("directories should be ignored")
	}
	if w.wants(filepath.Join(dir, "gone.jpg")) {
		t.Error("missing files should be ignored")
	}
	if w.wants(filepath.Join(dir, ".hidden")) {
		t.Error("hidden files should be ignored with SkipHidden")
	}
	if !w.wants(filepath.Join(dir, "a.jpg")) {
		t.Error("regular files should be organized")
	}
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the watcher time to start
	time.Sleep(100 * time.Millisecond)
}

func TestWatcherDebouncesIntoOnePass(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{Directory: dir, DebounceMs: 150})
	if err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	called := make(chan string, 4)
	w.Handler = func(got string) error {
		calls.Add(1)
		called <- got
		return nil
	}
	startWatcher(t, w)

	for _, name := range []string{"a.jpg", "b.pdf", "c.zip"} {
		os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644)
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case got := <-called:
		if got != dir {
			t.Errorf("handler called with %q, want %q", got, dir)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for handler call")
	}

	time.Sleep(400 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected a single organize pass, got %d", n)
	}
	runs := w.Runs()
	if len(runs) != 1 || runs[0].Status != "processed" || runs[0].Trigger != "a.jpg" {
		t.Errorf("unexpected runs %+v", runs)
	}
}

func TestWatcherIgnoresPartialDownloads(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{Directory: dir, DebounceMs: 50})
	if err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w.Handler = func(string) error {
		calls.Add(1)
		return nil
	}
	startWatcher(t, w)

	os.WriteFile(filepath.Join(dir, "video.mp4.crdownload"), []byte("x"), 0644)
	os.Mkdir(filepath.Join(dir, "Videos"), 0755)
	time.Sleep(300 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("handler should not run for temp files or folders, ran %d times", n)
	}
}

func TestWatcherRecordsHandlerError(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{Directory: dir, DebounceMs: 10})
	if err != nil {
		t.Fatal(err)
	}
	w.Handler = func(string) error { return errors.New("busy") }

	w.schedule("a.jpg")
	deadline := time.Now().Add(2 * time.Second)
	for len(w.Runs()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	w.watcher.Close()

	runs := w.Runs()
	if len(runs) != 1 || runs[0].Status != "error" || runs[0].Error != "busy" {
		t.Errorf("unexpected runs %+v", runs)
	}
}

func TestGetStatus(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{Directory: dir, DebounceMs: 60000})
	if err != nil {
		t.Fatal(err)
	}
	defer w.watcher.Close()

	w.schedule("a.jpg")
	status := w.GetStatus()
	if !status.Running || status.Directory != dir {
		t.Errorf("unexpected status %+v", status)
	}
	if !status.Pending {
		t.Error("expected a pending pass after an event")
	}
	w.timer.Stop()
}

func TestPIDFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".dirkit")

	if err := WritePIDFile(dir); err != nil {
		t.Fatal(err)
	}
	pid, err := ReadPIDFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("expected PID %d, got %d", os.Getpid(), pid)
	}

	if err := RemovePIDFile(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPIDFile(dir); err == nil {
		t.Error("expected error after removing PID file")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	dir := t.TempDir()
	started := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	config := Config{Directory: "/downloads", DebounceMs: 500, SkipHidden: true, StartedAt: started}

	if err := SaveConfig(dir, config); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Directory != "/downloads" || loaded.DebounceMs != 500 || !loaded.SkipHidden {
		t.Errorf("config mismatch: %+v", loaded)
	}
	if !loaded.StartedAt.Equal(started) {
		t.Errorf("startedAt = %v", loaded.StartedAt)
	}
}
