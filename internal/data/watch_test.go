package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsSourceChanges(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "balance.yaml")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(src, []byte("tiles: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := NewWatcher([]Source{{Path: src}}, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(other, []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(src, []byte("tiles: [{id: 1}]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-w.Events:
		want, _ := filepath.Abs(src)
		if got != want {
			t.Fatalf("expected event for %s, got %s", want, got)
		}
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("no event for a modified source")
	}
}

func TestWatcherReportsAfterLastWrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "balance.yaml")
	if err := os.WriteFile(src, []byte("tiles: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	const debounce = 300 * time.Millisecond
	w, err := NewWatcher([]Source{{Path: src}}, debounce)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	// a save that lands in two writes
	if err := os.WriteFile(src, []byte("tiles: [{id: 1,"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(src, []byte("tiles: [{id: 1}]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	last := time.Now()

	select {
	case <-w.Events:
		if waited := time.Since(last); waited < debounce/2 {
			t.Fatalf("event %v after the final write; expected it to wait for the save to settle", waited)
		}
		raw, err := os.ReadFile(src)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(raw) != "tiles: [{id: 1}]\n" {
			t.Fatalf("event arrived before the final write: %q", raw)
		}
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("no event after the final write")
	}

	select {
	case p := <-w.Events:
		t.Fatalf("writes within one window should coalesce, got extra event for %s", p)
	case <-time.After(2 * debounce):
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher([]Source{{Path: filepath.Join(dir, "a.tsx")}}, time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Fatalf("Events should be closed")
	}
}
