// Package watch reloads on-disk files (prompt templates, TLS material) when
// they change.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tailorpro/internal/errors"
)

const defaultDebounce = time.Second

// FileWatcher notifies a callback when any of a fixed set of files changes.
// Bursts of events are debounced and the callback only sees files whose
// modification time moved.
type FileWatcher struct {
	mu sync.Mutex

	name     string
	files    []string
	lastMod  map[string]time.Time
	onChange func(changed []string)
	logger   *errors.Logger

	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	timer     *time.Timer

	stopCh   chan struct{}
	reloadCh chan struct{}
	running  bool
}

// New creates a watcher for files. name is used only in log lines.
func New(name string, files []string, debounce time.Duration, onChange func(changed []string), logger *errors.Logger) (*FileWatcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%s watcher: no files to watch", name)
	}
	if onChange == nil {
		return nil, fmt.Errorf("%s watcher: onChange callback is required", name)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	abs := make([]string, 0, len(files))
	for _, f := range files {
		if f == "" {
			continue
		}
		p, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("%s watcher: %w", name, err)
		}
		abs = append(abs, p)
	}

	return &FileWatcher{
		name:     name,
		files:    abs,
		lastMod:  make(map[string]time.Time),
		onChange: onChange,
		logger:   logger,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		reloadCh: make(chan struct{}, 1),
	}, nil
}

// Start begins watching. It returns an error when already running.
func (w *FileWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("%s watcher is already running", w.name)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = fsw

	for _, f := range w.files {
		if stat, err := os.Stat(f); err == nil {
			w.lastMod[f] = stat.ModTime()
		}
	}

	// Directories rather than files, so atomic rename-over writes are seen.
	dirs := make(map[string]bool)
	for _, f := range w.files {
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fsw.Add(dir); err != nil && w.logger != nil {
			w.logger.Warn("Failed to watch directory", "watcher", w.name, "directory", dir, "error", err)
		}
	}

	w.running = true
	go w.loop()

	if w.logger != nil {
		w.logger.Info("File watcher started", "watcher", w.name, "files", w.files, "debounce_delay", w.debounce)
	}
	return nil
}

// Stop stops the watcher. Calling Stop on a stopped watcher is a no-op.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.stopCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.running = false

	if err := w.fsWatcher.Close(); err != nil {
		if w.logger != nil {
			w.logger.LogError(err, "Failed to close file system watcher", "watcher", w.name)
		}
		return err
	}
	if w.logger != nil {
		w.logger.Info("File watcher stopped", "watcher", w.name)
	}
	return nil
}

// IsRunning reports whether Start has been called without a matching Stop.
func (w *FileWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Files returns the absolute paths being watched.
func (w *FileWatcher) Files() []string {
	return append([]string(nil), w.files...)
}

func (w *FileWatcher) loop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.schedule()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.LogError(err, "File watcher error", "watcher", w.name)
			}

		case <-w.reloadCh:
			if changed := w.changedFiles(); len(changed) > 0 {
				if w.logger != nil {
					w.logger.Info("Watched files changed", "watcher", w.name, "files", changed)
				}
				w.onChange(changed)
			}

		case <-w.stopCh:
			return
		}
	}
}

func (w *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	for _, f := range w.files {
		if name == f {
			return true
		}
	}
	return false
}

func (w *FileWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.reloadCh <- struct{}{}:
		default:
		}
	})
}

// changedFiles is only called from loop, so lastMod needs no lock.
func (w *FileWatcher) changedFiles() []string {
	var changed []string
	for _, f := range w.files {
		stat, err := os.Stat(f)
		if err != nil {
			if _, seen := w.lastMod[f]; seen && os.IsNotExist(err) {
				delete(w.lastMod, f)
			}
			continue
		}
		last, seen := w.lastMod[f]
		if !seen || !stat.ModTime().Equal(last) {
			w.lastMod[f] = stat.ModTime()
			changed = append(changed, f)
		}
	}
	return changed
}
