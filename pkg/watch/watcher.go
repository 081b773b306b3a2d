// Package watch re-translates inputs when they change on disk.
package watch

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

	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/metrics"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
)

// Op is the kind of change seen for a path.
type Op int

const (
	OpWrite Op = iota
	OpRemove
)

func (op Op) String() string {
	if op == OpRemove {
		return "remove"
	}
	return "write"
}

// Change is one debounced file change.
type Change struct {
	Path string
	Op   Op
}

// Handler receives each debounced batch, sorted by path.
type Handler func(ctx context.Context, changes []Change)

// Watcher watches a directory tree for translatable inputs.
type Watcher struct {
	root     string
	debounce time.Duration
	handler  Handler
	filter   func(string) bool
	ignore   []string
	logger   logging.Logger
	metrics  *metrics.Registry

	mu      sync.RWMutex
	running bool
	lastErr error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(w *Watcher) { w.metrics = m }
}

// WithFilter replaces the default translate.Candidate filter.
func WithFilter(fn func(string) bool) Option {
	return func(w *Watcher) { w.filter = fn }
}

// WithIgnoreDir skips dir and everything below it, typically the output
// directory when it lives inside the watched tree.
func WithIgnoreDir(dir string) Option {
	return func(w *Watcher) {
		if abs, err := filepath.Abs(dir); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
}

// ErrOutputCoversInput is returned by CheckOutputDir when the output
// directory is the watched directory or one of its parents.
var ErrOutputCoversInput = errors.New("output directory covers the watched directory")

// CheckOutputDir rejects an output directory that WithIgnoreDir would turn
// into an ignore rule for the whole watched tree. An output directory
// nested inside root is fine.
func CheckOutputDir(root, out string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return err
	}
	prefix := absOut
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if absRoot == absOut || strings.HasPrefix(absRoot, prefix) {
		return fmt.Errorf("%w: %s", ErrOutputCoversInput, out)
	}
	return nil
}

func (w *Watcher) ignored(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, dir := range w.ignore {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// New creates a watcher over root. Changes to a path are coalesced until
// no event has arrived for the debounce window.
func New(root string, debounce time.Duration, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: debounce,
		handler:  handler,
		filter:   translate.Candidate,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.OrNop(w.logger).With(logging.Component("watch"))
	if w.metrics == nil {
		w.metrics = metrics.DefaultRegistry()
	}
	return w
}

// State reports whether the watcher is running and its last error.
func (w *Watcher) State() (bool, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running, w.lastErr
}

func (w *Watcher) setState(running bool, err error) {
	w.mu.Lock()
	w.running = running
	if err != nil {
		w.lastErr = err
	}
	w.mu.Unlock()
}

// Run watches until ctx is cancelled. Pending changes are flushed before
// Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.setState(false, err)
		return err
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.root); err != nil {
		w.setState(false, err)
		return err
	}
	w.setState(true, nil)
	defer w.setState(false, nil)
	w.logger.Info("watching directory", logging.Path(w.root), logging.Duration("debounce", w.debounce))

	pending := make(map[string]Op)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	flush := func(ctx context.Context) {
		if len(pending) == 0 {
			return
		}
		changes := make([]Change, 0, len(pending))
		for p, op := range pending {
			changes = append(changes, Change{Path: p, Op: op})
		}
		sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
		clear(pending)
		if w.handler != nil {
			w.handler(ctx, changes)
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush(context.WithoutCancel(ctx))
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if w.ignored(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fsw, ev.Name); err != nil {
						w.logger.Warn("cannot watch new directory", logging.Path(ev.Name), logging.Error(err))
					}
					continue
				}
			}
			if !w.filter(ev.Name) {
				continue
			}
			op, ok := classify(ev.Op)
			if !ok {
				continue
			}
			w.metrics.WatchEventsTotal.WithLabelValues(op.String()).Inc()
			pending[ev.Name] = op
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.setState(true, err)
			w.logger.Error("watch error", logging.Error(err))

		case <-timer.C:
			flush(ctx)
		}
	}
}

func classify(op fsnotify.Op) (Op, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpRemove, true
	case op.Has(fsnotify.Create), op.Has(fsnotify.Write):
		return OpWrite, true
	}
	return 0, false
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (strings.HasPrefix(d.Name(), ".") || w.ignored(p)) {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
}
