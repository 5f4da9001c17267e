// Package watch monitors a run-parameter file and reports debounced edits
// so the CLI can regenerate initial conditions on save.
package watch

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind describes the type of file change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // Parameter file edited or replaced
	ChangeRemoved                    // Parameter file deleted
)

// Change represents a detected change to the watched parameter file.
type Change struct {
	Kind ChangeKind
	Path string // Absolute path
}

// Watcher monitors a parameter file for changes using fsnotify. The
// containing directory is watched so editors that replace the file on
// save are still seen.
type Watcher struct {
	Path    string
	Changes <-chan Change // Read-only external channel

	changes chan Change // Internal write channel
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a new watcher for the given parameter file.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 16)
	w := &Watcher{
		Path:    path,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}
	return w, nil
}

// Start begins watching the parameter file's directory for changes.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: editors fire several events per save.
	const debounce = 100 * time.Millisecond
	pending := make(map[ChangeKind]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for kind := range pending {
					w.changes <- Change{Kind: kind, Path: w.Path}
				}
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.Path) {
				continue
			}

			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				pending[ChangeRemoved] = time.Now()
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				pending[ChangeModified] = time.Now()
				// A rewrite supersedes a pending removal.
				delete(pending, ChangeRemoved)
			}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			now := time.Now()
			for kind, t := range pending {
				if now.Sub(t) >= debounce {
					w.changes <- Change{Kind: kind, Path: w.Path}
					delete(pending, kind)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Ignore watch errors; they're non-fatal.
		}
	}
}
