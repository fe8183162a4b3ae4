package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/giantswarm/mcpkit/internal/identifier"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

// DefaultDebounce is used when New is given a zero interval.
const DefaultDebounce = 300 * time.Millisecond

// Change is a batch of definition file changes observed within one
// debounce window.
type Change struct {
	// Paths holds every changed file, sorted and without duplicates.
	Paths []string
	Time  time.Time
}

// Watcher watches definition directories and emits debounced batches of
// changes.
//
// fsnotify does not watch recursively, so every directory below a root is
// added on Start and directories created later are added as they appear.
type Watcher struct {
	mu sync.Mutex

	roots    []string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	// pending collects paths until the debounce timer fires.
	pending map[string]struct{}
	timer   *time.Timer

	stopCh  chan struct{}
	running bool
}

// New creates a watcher for the given directory roots.
func New(roots []string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		roots:    append([]string(nil), roots...),
		debounce: debounce,
		pending:  make(map[string]struct{}),
		stopCh:   make(chan struct{}),
	}
}

// Start adds the watches and begins emitting changes. Watches are in
// place when Start returns. Missing roots are skipped.
func (w *Watcher) Start(ctx context.Context, changes chan<- Change) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			if os.IsNotExist(err) {
				logging.Warn("Watch", "Definition directory %s does not exist, not watching it", root)
				continue
			}
			_ = w.Stop()
			return err
		}
	}

	go w.processEvents(ctx, changes)

	logging.Info("Watch", "Watching %d definition directories for changes", len(w.roots))
	return nil
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		w.mu.Lock()
		watcher := w.watcher
		w.mu.Unlock()
		if watcher == nil {
			return fs.SkipAll
		}
		if err := watcher.Add(path); err != nil {
			return err
		}
		logging.Debug("Watch", "Watching directory: %s", path)
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context, changes chan<- Change) {
	w.mu.Lock()
	watcher := w.watcher
	stopCh := w.stopCh
	w.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			w.cleanupPending()
			return

		case <-stopCh:
			w.cleanupPending()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(ctx, event, changes)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Watch", err, "Filesystem watcher error")
		}
	}
}

func (w *Watcher) handleFsEvent(ctx context.Context, event fsnotify.Event, changes chan<- Change) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logging.Warn("Watch", "Failed to watch new directory %s: %v", event.Name, err)
			}
			// Files may land before the watch is added, so the directory
			// itself counts as a change.
			w.record(ctx, event.Name, changes)
			return
		}
	}

	if !identifier.HasDefinitionExtension(filepath.Base(event.Name)) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.record(ctx, event.Name, changes)
}

// record adds path to the pending batch and restarts the debounce timer.
func (w *Watcher) record(ctx context.Context, path string, changes chan<- Change) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.flush(ctx, changes)
	})
}

func (w *Watcher) flush(ctx context.Context, changes chan<- Change) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	stopCh := w.stopCh
	w.mu.Unlock()

	sort.Strings(paths)
	select {
	case changes <- Change{Paths: paths, Time: time.Now()}:
		logging.Debug("Watch", "Emitted change batch of %d files", len(paths))
	case <-ctx.Done():
	case <-stopCh:
	}
}

func (w *Watcher) cleanupPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]struct{})
}

// Stop closes the underlying watcher. Pending changes are discarded.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			logging.Error("Watch", err, "Error closing filesystem watcher")
		}
		w.watcher = nil
	}

	logging.Debug("Watch", "Stopped watching definition directories")
	return nil
}
