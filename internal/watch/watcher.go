// Package watch re-scans markup files as they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"testhook/internal/logging"
	"testhook/internal/parse"
	"testhook/internal/scan"
)

// DefaultDebounce lets editors finish a burst of writes before a re-scan.
const DefaultDebounce = 300 * time.Millisecond

// Event is delivered once per settled file change.
type Event struct {
	// Path is relative to the watched root, with forward slashes.
	Path string
	// Result is the scan of the file. Removed files carry an empty result.
	Result  scan.FileResult
	Removed bool
}

// Handler receives events on the watcher goroutine.
type Handler func(Event)

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Scans         int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Tick is how often settled changes are flushed. Defaults to Debounce/3.
	Tick time.Duration
}

// Watcher watches a directory tree and scans changed files. Every file is
// scanned as its own run, so ordinals restart at zero per file.
type Watcher struct {
	mu       sync.Mutex
	root     string
	fsw      *fsnotify.Watcher
	scanner  *scan.Scanner
	filter   *scan.Filter
	handler  Handler
	logger   *zap.Logger
	pending  map[string]time.Time
	debounce time.Duration
	tick     time.Duration
	ready    chan struct{}
	stats    Stats
}

// New creates a watcher for root. The scan options are used with the
// ordinal scope forced to per-file.
func New(root string, factory *parse.Factory, scanOpts scan.Options, filter *scan.Filter, opts Options, handler Handler, logger *zap.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = scan.DefaultFilter()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Tick <= 0 {
		opts.Tick = opts.Debounce / 3
		if opts.Tick < 10*time.Millisecond {
			opts.Tick = 10 * time.Millisecond
		}
	}

	scanOpts.OrdinalScope = scan.ScopeFile
	logger = logging.Named(logger, logging.CategoryWatch)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		root:     abs,
		fsw:      fsw,
		scanner:  scan.New(factory, scanOpts, logger),
		filter:   filter,
		handler:  handler,
		logger:   logger,
		pending:  make(map[string]time.Time),
		debounce: opts.Debounce,
		tick:     opts.Tick,
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once the initial directory watches are installed, or
// when installing them failed and Run is about to return the error.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. It closes the underlying watcher
// before returning, so a Watcher runs once.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if _, err := os.Stat(w.root); err != nil {
		close(w.ready)
		return fmt.Errorf("watch root: %w", err)
	}
	if err := w.addTree(w.root, false); err != nil {
		close(w.ready)
		return err
	}
	w.logger.Info("watching", zap.String("root", w.root), zap.Int("dirs", len(w.fsw.WatchList())))
	close(w.ready)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("context cancelled")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// addTree watches dir and every non-ignored directory below it. When
// enqueue is set, files already present are scheduled too; this covers
// files written into a new directory before its watch existed.
func (w *Watcher) addTree(dir string, enqueue bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Vanished between the event and the walk.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		rel := w.rel(p)
		if d.IsDir() {
			if rel != "." && w.filter.Ignored(rel) {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(p); err != nil {
				return fmt.Errorf("watch %s: %w", p, err)
			}
			return nil
		}
		if enqueue {
			w.enqueue(p)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name, true); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			return
		}
	case event.Has(fsnotify.Write), event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
	default:
		return // chmod
	}
	w.enqueue(event.Name)
}

func (w *Watcher) enqueue(path string) {
	rel := w.rel(path)
	if !w.filter.Match(rel) || !w.scanner.Accepts(rel) {
		return
	}
	w.logger.Debug("change", zap.String("path", rel))

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.stats.Events++
	w.stats.LastEventPath = rel
	w.stats.LastEventTime = time.Now()
	w.mu.Unlock()
}

// flush scans files whose last change is older than the debounce window.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, path)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	rel := w.rel(path)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.handler(Event{Path: rel, Result: scan.FileResult{Path: rel}, Removed: true})
			return
		}
		w.logger.Warn("failed to read", zap.String("path", rel), zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	report, err := w.scanner.ScanFiles(ctx, []scan.File{{Path: rel, Content: content}})
	if err != nil {
		return
	}
	w.mu.Lock()
	w.stats.Scans++
	w.mu.Unlock()

	for _, res := range report.Files {
		w.handler(Event{Path: rel, Result: res})
	}
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
