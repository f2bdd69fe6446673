package library

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/SmolSoftBoi/compressarr/internal/logger"
)

const defaultDebounce = 500 * time.Millisecond

// Op identifies which of the three watcher signals a debounced event
// settled as.
type Op int

const (
	OpAdded Op = iota
	OpChanged
	OpRemoved
)

// Event is the watcher's debounced, settled notification for one absolute
// path.
type Event struct {
	Path string
	Op   Op
}

// watcher walks root recursively, ignores dotfiles, and waits for writes
// to settle (atomic-write awareness) before emitting a debounced Event on
// Events. Symbolic links to directories are not followed: directories
// reached only through a symlink are not watched.
type watcher struct {
	root    string
	fsw     *fsnotify.Watcher
	Events  chan Event
	stopCh  chan struct{}

	mu      sync.Mutex
	pending map[string]*pendingEvent
}

type pendingEvent struct {
	op    Op
	timer *time.Timer
}

func newWatcher(root string) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		root:    root,
		fsw:     fsw,
		Events:  make(chan Event, 64),
		stopCh:  make(chan struct{}),
		pending: make(map[string]*pendingEvent),
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

func (w *watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if isDotfile(path) && path != dir {
				return filepath.SkipDir
			}
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				real = path
			}
			if err := w.fsw.Add(real); err != nil {
				logger.Library().Warn().Err(err).Str("path", real).Msg("failed to watch directory")
			}
		}
		return nil
	})
}

func isDotfile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func (w *watcher) run() {
	for {
		select {
		case <-w.stopCh:
			w.cancelPending()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Library().Warn().Err(err).Str("root", w.root).Msg("watcher error")
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	if isDotfile(ev.Name) {
		return
	}

	if ev.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.addTree(ev.Name)
			return
		}
	}

	var op Op
	switch {
	case ev.Op&fsnotify.Create == fsnotify.Create:
		op = OpAdded
	case ev.Op&fsnotify.Write == fsnotify.Write:
		op = OpChanged
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		op = OpRemoved
	default:
		return
	}

	w.debounce(ev.Name, op)
}

// debounce folds rapid successive events for the same path into one,
// waiting for writes to settle before emitting — this is the watcher's
// atomic-write awareness.
func (w *watcher) debounce(path string, op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.pending[path]; ok {
		existing.timer.Stop()
		op = mergeOp(existing.op, op)
	}

	timer := time.AfterFunc(defaultDebounce, func() {
		w.mu.Lock()
		entry, ok := w.pending[path]
		if ok {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		if !ok {
			return
		}
		if entry.op != OpRemoved {
			if _, err := os.Stat(path); err != nil {
				return
			}
		}
		select {
		case w.Events <- Event{Path: path, Op: entry.op}:
		case <-w.stopCh:
		}
	})

	w.pending[path] = &pendingEvent{op: op, timer: timer}
}

func mergeOp(old, next Op) Op {
	if next == OpRemoved {
		return OpRemoved
	}
	if old == OpAdded {
		return OpAdded
	}
	return next
}

func (w *watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.pending {
		e.timer.Stop()
	}
	w.pending = make(map[string]*pendingEvent)
}

func (w *watcher) Close() error {
	close(w.stopCh)
	return w.fsw.Close()
}
