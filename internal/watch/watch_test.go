package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_DetectsChange(t *testing.T) {
	dir := t.TempDir()

	paramFile := filepath.Join(dir, "comova.toml")
	if err := os.WriteFile(paramFile, []byte("[run]\nname = \"test\"\n"), 0644); err != nil {
		t.Fatalf("failed to create parameter file: %v", err)
	}

	w, err := NewWatcher(paramFile)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// Modify the file.
	if err := os.WriteFile(paramFile, []byte("[run]\nname = \"edited\"\n"), 0644); err != nil {
		t.Fatalf("failed to update parameter file: %v", err)
	}

	// Wait for change with timeout.
	select {
	case change := <-w.Changes:
		if change.Kind != ChangeModified {
			t.Errorf("expected ChangeModified, got %d", change.Kind)
		}
		if change.Path != paramFile {
			t.Errorf("expected path %q, got %q", paramFile, change.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	paramFile := filepath.Join(dir, "comova.toml")
	if err := os.WriteFile(paramFile, []byte(""), 0644); err != nil {
		t.Fatalf("failed to create parameter file: %v", err)
	}

	w, err := NewWatcher(paramFile)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// Write an unrelated file in the same directory.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	// Should not receive any change.
	select {
	case change := <-w.Changes:
		t.Errorf("unexpected change event: %+v", change)
	case <-time.After(300 * time.Millisecond):
		// Expected: no events for unrelated files.
	}
}

func TestWatcher_DetectsRemoval(t *testing.T) {
	dir := t.TempDir()

	paramFile := filepath.Join(dir, "comova.toml")
	if err := os.WriteFile(paramFile, []byte(""), 0644); err != nil {
		t.Fatalf("failed to create parameter file: %v", err)
	}

	w, err := NewWatcher(paramFile)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.Remove(paramFile); err != nil {
		t.Fatalf("failed to remove parameter file: %v", err)
	}

	select {
	case change := <-w.Changes:
		if change.Kind != ChangeRemoved {
			t.Errorf("expected ChangeRemoved, got %d", change.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for removal event")
	}
}
