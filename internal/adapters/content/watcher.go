package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettleDelay is how long the watcher waits for a burst of writes to
// finish before invalidating the index.
const DefaultSettleDelay = 250 * time.Millisecond

// Watcher invalidates an Index when lesson files under its root change.
// Directories are watched recursively and new subdirectories are picked up
// as they appear.
type Watcher struct {
	index  *Index
	settle time.Duration
	fs     *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher starts watching index.Root(). Call Run to process events.
func NewWatcher(index *Index, settle time.Duration) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{index: index, settle: settle, fs: fw}
	if err := w.watchTree(index.Root()); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes file events until ctx is cancelled, then releases the
// underlying watches.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("content_watch_error", "error", err.Error())
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if hiddenDir(filepath.Base(event.Name)) {
				return
			}
			if err := w.watchTree(event.Name); err != nil {
				slog.Warn("content_watch_add_failed", "path", event.Name, "error", err.Error())
			}
			// Files may have landed before the watch was added.
			w.schedule()
			return
		}
	}
	// Removed or renamed directories have no extension; they may have held lessons.
	gone := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	if isLessonFile(event.Name) || (gone && filepath.Ext(event.Name) == "") {
		w.schedule()
	}
}

// schedule debounces invalidation so a burst of writes causes one rebuild.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.settle, func() {
		w.index.Invalidate()
		slog.Debug("content_index_invalidated", "root", w.index.Root())
	})
}

func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			slog.Warn("content_watch_skip", "path", p, "error", err.Error())
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && hiddenDir(d.Name()) {
			return fs.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) close() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.fs.Close()
}
