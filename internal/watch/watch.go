// Package watch reports filesystem changes under the directories shown in
// the project tree.
package watch

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a set of directories and coalesces their events into a
// single dirty flag that the UI polls.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	notify  func()

	mu      sync.Mutex
	watched map[string]bool

	changed atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher. notify, when non-nil, is called from the watch
// goroutine after each batch of events so the UI can wake up.
func New(logger *slog.Logger, notify func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		logger:  logger,
		notify:  notify,
		watched: make(map[string]bool),
		stopCh:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.watchLoop()
	return w, nil
}

// Sync makes dirs the exact set of watched directories. Directories that
// cannot be watched (deleted, permission denied) are logged and skipped.
func (w *Watcher) Sync(dirs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	want := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		want[d] = true
	}

	for d := range w.watched {
		if !want[d] {
			if err := w.watcher.Remove(d); err != nil {
				w.logger.Debug("unwatch failed", "dir", d, "error", err)
			}
			delete(w.watched, d)
		}
	}
	for d := range want {
		if w.watched[d] {
			continue
		}
		if err := w.watcher.Add(d); err != nil {
			w.logger.Debug("watch failed", "dir", d, "error", err)
			continue
		}
		w.watched[d] = true
	}
}

// Watched returns the number of directories currently watched.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

// Changed reports whether anything changed since the last call and resets
// the flag.
func (w *Watcher) Changed() bool {
	return w.changed.Swap(false)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	select {
	case <-w.stopCh:
		return nil
	default:
	}
	close(w.stopCh)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Content writes do not change the tree.
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.changed.Swap(true) && w.notify != nil {
				w.notify()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}
