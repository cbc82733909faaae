// Package watcher mirrors external edits under the docs root into the
// snapshot cache and the search index.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docweave/docweave/internal/document"
)

const (
	defaultDebounce = 200 * time.Millisecond
	changeBuffer    = 256
)

// Store is the document side the watcher keeps fresh.
type Store interface {
	GetDocument(docPath string) (*document.Snapshot, error)
	InvalidateDocument(docPath string)
}

// Indexer is the search side the watcher keeps fresh.
type Indexer interface {
	IndexDocument(snap *document.Snapshot) error
	RemoveDocument(path string) error
}

type change struct {
	docPath string
	removed bool
}

// Watcher watches the docs root recursively and applies debounced
// batches of changes, so one saved file triggers one reindex rather
// than one per write syscall.
type Watcher struct {
	root     string
	store    Store
	index    Indexer
	logger   *slog.Logger
	debounce time.Duration

	fsw      *fsnotify.Watcher
	changes  chan change
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	watching bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a batch waits for further changes before
// it is applied.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over the docs root. Call Start to begin.
func New(root string, store Store, index Indexer, logger *slog.Logger, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving watch root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		root:     abs,
		store:    store,
		index:    index,
		logger:   logger,
		debounce: defaultDebounce,
		fsw:      fsw,
		changes:  make(chan change, changeBuffer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches the root and every subdirectory. The two goroutines it
// spawns exit when ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("watching docs root: %w", err)
	}

	go w.processEvents(ctx)
	go w.flushLoop(ctx)

	w.logger.Info("watching docs root", "root", w.root)
	return nil
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsw.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// docPath maps an absolute filesystem path onto the canonical document
// path, or "" when the path is not a tracked document.
func (w *Watcher) docPath(fsPath string) string {
	rel, err := filepath.Rel(w.root, fsPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	slash := filepath.ToSlash(rel)
	if !strings.HasSuffix(slash, ".md") {
		return ""
	}
	for _, part := range strings.Split(slash, "/") {
		if strings.HasPrefix(part, ".") {
			return ""
		}
	}
	return "/" + slash
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	// New directories join the watch so files created inside them are
	// seen too.
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(ev.Name), ".") {
				_ = w.fsw.Add(ev.Name)
			}
			return
		}
	}

	docPath := w.docPath(ev.Name)
	if docPath == "" {
		return
	}

	c := change{
		docPath: docPath,
		removed: ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename),
	}
	select {
	case w.changes <- c:
	default:
		w.logger.Debug("change buffer full, dropping event", "path", docPath)
	}
}

func (w *Watcher) flushLoop(ctx context.Context) {
	var batch []change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		for _, c := range dedupe(batch) {
			w.apply(c)
		}
		batch = batch[:0]
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case c := <-w.changes:
			batch = append(batch, c)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// dedupe keeps the most recent change per document, preserving first
// occurrence order.
func dedupe(batch []change) []change {
	seen := make(map[string]int, len(batch))
	out := make([]change, 0, len(batch))
	for _, c := range batch {
		if i, ok := seen[c.docPath]; ok {
			out[i] = c
			continue
		}
		seen[c.docPath] = len(out)
		out = append(out, c)
	}
	return out
}

func (w *Watcher) apply(c change) {
	w.store.InvalidateDocument(c.docPath)

	if c.removed {
		if err := w.index.RemoveDocument(c.docPath); err != nil {
			w.logger.Warn("removing document from index", "path", c.docPath, "error", err)
		} else {
			w.logger.Debug("document removed from index", "path", c.docPath)
		}
		return
	}

	snap, err := w.store.GetDocument(c.docPath)
	if err != nil {
		// A write event can race a delete; treat a vanished file as
		// removed.
		if document.IsNotFound(err) {
			_ = w.index.RemoveDocument(c.docPath)
			return
		}
		w.logger.Warn("reloading changed document", "path", c.docPath, "error", err)
		return
	}
	if err := w.index.IndexDocument(snap); err != nil {
		w.logger.Warn("reindexing changed document", "path", c.docPath, "error", err)
		return
	}
	w.logger.Debug("document reindexed", "path", c.docPath)
}
