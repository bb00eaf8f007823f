// Package watcher re-indexes Go files as they change on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/codechunk/internal/logger"
)

// ErrRetryLater marks a handler error that should be retried after another
// debounce interval, e.g. while a full index run holds the lock.
var ErrRetryLater = errors.New("retry later")

// DefaultDebounce is the quiet period before a changed file is handled.
const DefaultDebounce = 500 * time.Millisecond

// Handler receives the absolute path of a changed or removed file.
type Handler func(ctx context.Context, path string) error

// Config holds watcher configuration
type Config struct {
	Debounce time.Duration
	OnChange Handler // write or create
	OnRemove Handler // remove or rename away
	// Match selects the files that trigger handlers. Defaults to .go files.
	Match  func(path string) bool
	Logger logger.Logger
}

type eventKind int

const (
	kindChange eventKind = iota
	kindRemove
)

// Watcher watches a directory tree and debounces events per file.
type Watcher struct {
	fsw      *fsnotify.Watcher
	cfg      Config
	log      logger.Logger
	mu       sync.Mutex
	watched  map[string]bool
	pending  map[string]*time.Timer
	inflight sync.WaitGroup
	ctx      context.Context
	closed   bool
}

// New creates a watcher. Call AddRecursive, then Run.
func New(cfg Config) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Match == nil {
		cfg.Match = IsGoSource
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		fsw:     fsw,
		cfg:     cfg,
		log:     log,
		watched: make(map[string]bool),
		pending: make(map[string]*time.Timer),
		ctx:     context.Background(),
	}, nil
}

// IsGoSource reports whether path is a Go file.
func IsGoSource(path string) bool {
	return strings.HasSuffix(path, ".go")
}

// skipDir reports directories never watched: hidden ones, vendor and testdata.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata"
}

// AddRecursive watches root and every non-skipped directory below it. root
// itself is always watched, even when its name would be skipped.
func (w *Watcher) AddRecursive(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	return w.walk(abs, false)
}

// walk adds dir and its non-skipped subdirectories. With scan set, matching
// files found on the way are scheduled as changes; they were created or moved
// in before the new directory was watched.
func (w *Watcher) walk(dir string, scan bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if scan && w.cfg.Match(path) {
				w.schedule(path, kindChange)
			}
			return nil
		}
		if path != dir && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.add(path)
	})
}

// addCreated handles a directory that appeared under a watched one.
func (w *Watcher) addCreated(dir string) {
	if skipDir(filepath.Base(dir)) {
		w.log.Debug("ignoring new directory", "dir", dir)
		return
	}
	if err := w.walk(dir, true); err != nil {
		w.log.Warn("failed to watch new directory", "dir", dir, "error", err)
	}
}

func (w *Watcher) add(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watched[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.watched[dir] = true
	return nil
}

// Watched returns the watched directories in sorted order.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.watched))
	for path := range w.watched {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.addCreated(path)
			return
		}
	}

	if !w.cfg.Match(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.schedule(path, kindRemove)
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		w.schedule(path, kindChange)
	}
}

// schedule (re)starts the debounce timer for path; the latest event wins.
func (w *Watcher) schedule(path string, kind eventKind) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if timer, exists := w.pending[path]; exists {
		timer.Stop()
	}

	w.pending[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		ctx := w.ctx
		w.inflight.Add(1)
		w.mu.Unlock()
		defer w.inflight.Done()

		if ctx.Err() != nil {
			return
		}
		w.dispatch(ctx, path, kind)
	})
}

func (w *Watcher) dispatch(ctx context.Context, path string, kind eventKind) {
	handler := w.cfg.OnChange
	action := "change"
	if kind == kindRemove {
		handler = w.cfg.OnRemove
		action = "remove"
	}
	if handler == nil {
		return
	}

	err := handler(ctx, path)
	switch {
	case err == nil:
		w.log.Debug("handled file event", "file", path, "action", action)
	case errors.Is(err, ErrRetryLater):
		w.log.Debug("handler busy, retrying", "file", path, "action", action)
		w.schedule(path, kind)
	default:
		w.log.Error("file event handler failed", "file", path, "action", action, "error", err)
	}
}

// Close stops the watcher, cancels pending timers and waits for running
// handlers.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = make(map[string]*time.Timer)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.inflight.Wait()
	return err
}
