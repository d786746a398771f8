package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	engerrors "github.com/Vojkan-Cvijovic/searchengine/internal/errors"
	"github.com/Vojkan-Cvijovic/searchengine/internal/filter"
	"github.com/Vojkan-Cvijovic/searchengine/internal/indexing"
)

// lockFileName is the advisory overlap guard's lock file, created at the
// root of every watched tree. It prevents two watcher instances from
// registering recursive watches on the same root directory at once, which
// would otherwise double-dispatch every event. A watcher started on a
// nested subdirectory takes its own lock file there and is not refused.
const lockFileName = ".textindex-watch.lock"

// HybridWatcher translates filesystem changes under a root directory into
// calls on an indexing.Service: it uses fsnotify as the primary mechanism
// and falls back to polling if fsnotify could not be initialized. Grounded
// on the teacher's internal/watcher.HybridWatcher, with gitignore-based
// filtering replaced by filter.Policy and direct index dispatch.
type HybridWatcher struct {
	service *indexing.Service

	fsWatcher   *fsnotify.Watcher
	pollWatcher *PollingWatcher
	useFsnotify bool

	debouncer  *Debouncer
	fileFilter *filter.Policy

	lock   *flock.Flock
	locked bool

	events chan []FileEvent
	errors chan error
	stopCh chan struct{}

	rootPath string
	opts     Options

	mu      sync.RWMutex
	stopped bool

	droppedBatches  atomic.Uint64
	watchedDirCount atomic.Uint64
}

// NewHybridWatcher creates a new hybrid watcher bound to service. It
// attempts to use fsnotify first and falls back to polling if fsnotify
// cannot be initialized on this platform.
func NewHybridWatcher(service *indexing.Service, opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		service:    service,
		debouncer:  NewDebouncer(opts.DebounceWindow),
		fileFilter: filter.NewWatcherPolicy(),
		events:     make(chan []FileEvent, opts.EventBufferSize),
		errors:     make(chan error, 10),
		stopCh:     make(chan struct{}),
		opts:       opts,
	}

	if fsw, err := fsnotify.NewWatcher(); err == nil {
		h.fsWatcher = fsw
		h.useFsnotify = true
	} else {
		h.useFsnotify = false
		h.pollWatcher = NewPollingWatcher(opts.PollInterval)
	}

	return h, nil
}

// Start begins watching root. If indexExisting is true, root is fully
// indexed (via the bound service, wrapped in the standard retry policy)
// before the watch begins. Start blocks until ctx is cancelled or Stop is
// called.
func (h *HybridWatcher) Start(ctx context.Context, root string, indexExisting bool) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return engerrors.ValidationError("resolve absolute path for "+root, err)
	}

	info, err := os.Stat(absPath)
	if err != nil || !info.IsDir() {
		return engerrors.ValidationError("watch root must be an existing directory: "+absPath, err)
	}
	h.rootPath = absPath

	if err := h.acquireOverlapGuard(absPath); err != nil {
		return err
	}
	defer h.releaseOverlapGuard()

	if indexExisting {
		_, err := engerrors.MustRetry(ctx, engerrors.DefaultRetryConfig(), func() (int, error) {
			return h.service.IndexDirectory(ctx, absPath)
		})
		if err != nil {
			h.logger().Error("initial indexing failed, continuing to watch anyway", "root", absPath, "error", err)
		}
	}

	dispatch, gctx := errgroup.WithContext(ctx)
	dispatch.SetLimit(h.opts.WorkerPoolSize)
	dispatchDone := make(chan struct{})
	go func() {
		h.dispatchLoop(gctx, dispatch)
		close(dispatchDone)
	}()

	if h.useFsnotify {
		err = h.startFsnotify(ctx)
	} else {
		err = h.startPolling(ctx)
	}
	<-dispatchDone
	_ = dispatch.Wait()
	return err
}

// acquireOverlapGuard takes a non-blocking advisory lock at root, failing
// Start if another watcher already holds it — resolves the
// overlapping-watch-roots question by refusing the second watcher outright
// rather than silently double-dispatching events.
func (h *HybridWatcher) acquireOverlapGuard(root string) error {
	lock := flock.New(filepath.Join(root, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return engerrors.WatcherError("acquire watch lock for "+root, err)
	}
	if !ok {
		return engerrors.WatcherError("directory "+root+" is already being watched by another instance", nil)
	}

	h.mu.Lock()
	h.lock = lock
	h.locked = true
	h.mu.Unlock()
	return nil
}

func (h *HybridWatcher) releaseOverlapGuard() {
	h.mu.Lock()
	lock := h.lock
	locked := h.locked
	h.locked = false
	h.mu.Unlock()

	if lock == nil || !locked {
		return
	}
	_ = lock.Unlock()
	_ = os.Remove(lock.Path())
}

func (h *HybridWatcher) logger() *slog.Logger {
	return slog.Default()
}

// startFsnotify registers root and its subdirectories with fsnotify and
// translates incoming events into debounced FileEvents.
func (h *HybridWatcher) startFsnotify(ctx context.Context) error {
	if err := h.addRecursive(h.rootPath); err != nil {
		return engerrors.WatcherError("add directories to watcher", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

// startPolling runs the polling fallback, forwarding its events through the
// same debouncer used by the fsnotify path.
func (h *HybridWatcher) startPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case event, ok := <-h.pollWatcher.Events():
				if !ok {
					return
				}
				if h.shouldIgnore(event.Path, event.IsDir) {
					continue
				}
				h.debouncer.Add(event)
			case err, ok := <-h.pollWatcher.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	return h.pollWatcher.Start(ctx, h.rootPath)
}

// handleFsnotifyEvent converts and filters fsnotify events into debounced
// FileEvents, keeping the watch recursive by adding newly created
// directories as they appear.
func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	if h.shouldIgnore(event.Name, isDir) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			if err := h.addRecursive(event.Name); err != nil {
				h.emitError(err)
			}
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpDelete
	case event.Op&fsnotify.Chmod != 0:
		return
	default:
		return
	}

	h.debouncer.Add(FileEvent{
		Path:      event.Name,
		Operation: op,
		IsDir:     isDir,
		Timestamp: time.Now(),
	})
}

// dispatchLoop reads debounced event batches and fans each event out to the
// bound indexing service, per the operation-dispatch table: CREATE/MODIFY
// on an indexable file calls IndexFile, DELETE calls RemoveFile, everything
// else is ignored. New directories are not handled here: the fsnotify path
// registers them recursively when their CREATE event arrives.
func (h *HybridWatcher) dispatchLoop(ctx context.Context, g *errgroup.Group) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case batch, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			if len(batch) == 0 {
				continue
			}
			h.emitEvents(batch)
			for _, evt := range batch {
				evt := evt
				g.Go(func() error {
					h.dispatchEvent(ctx, evt)
					return nil
				})
			}
		}
	}
}

func (h *HybridWatcher) dispatchEvent(ctx context.Context, evt FileEvent) {
	switch evt.Operation {
	case OpCreate:
		if evt.IsDir {
			return
		}
		if h.fileFilter.HasIndexableExtension(evt.Path) {
			if _, err := h.service.IndexFile(ctx, evt.Path); err != nil {
				h.emitError(err)
			}
		}
	case OpModify:
		if !evt.IsDir && h.fileFilter.HasIndexableExtension(evt.Path) {
			if _, err := h.service.IndexFile(ctx, evt.Path); err != nil {
				h.emitError(err)
			}
		}
	case OpDelete:
		h.service.RemoveFile(evt.Path)
	}
}

// addRecursive adds root and every subdirectory under it to the fsnotify
// watcher, skipping the subdirectories shouldIgnoreDir rejects (.git).
func (h *HybridWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && h.shouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if addErr := h.fsWatcher.Add(path); addErr != nil {
			return nil
		}
		h.watchedDirCount.Add(1)
		return nil
	})
}

// shouldIgnoreDir reports whether a directory should never be registered
// with the watcher. Only .git directories are rejected.
func (h *HybridWatcher) shouldIgnoreDir(path string) bool {
	base := filepath.Base(path)
	return base == ".git"
}

// shouldIgnore reports whether a path should be dropped before reaching the
// debouncer: the lock file itself and .git directories. Files are not
// checked against the watcher's file filter here; dispatchEvent applies it.
func (h *HybridWatcher) shouldIgnore(path string, isDir bool) bool {
	if filepath.Base(path) == lockFileName {
		return true
	}
	if isDir {
		return h.shouldIgnoreDir(path)
	}
	return false
}

// emitEvents sends a debounced batch to the watcher's own output channel,
// independent of dispatching it to the indexing service — callers that
// only want to observe activity (e.g. a status command) can drain Events()
// without affecting indexing.
func (h *HybridWatcher) emitEvents(events []FileEvent) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.events <- events:
	default:
		count := h.droppedBatches.Add(1)
		slog.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(events)),
			slog.Uint64("total_dropped_batches", count),
		)
	}
}

// DroppedBatches returns the number of event batches dropped due to buffer
// overflow.
func (h *HybridWatcher) DroppedBatches() uint64 {
	return h.droppedBatches.Load()
}

// WatchedDirectoryCount returns the number of directories registered with
// the watcher so far. Monotone: it is never decremented when a directory is
// removed.
func (h *HybridWatcher) WatchedDirectoryCount() uint64 {
	return h.watchedDirCount.Load()
}

func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.errors <- err:
	default:
	}
}

// Stop stops the watcher: it closes the stop channel, the debouncer and the
// underlying fsnotify or polling watcher, allowing that shutdown up to
// Options.GracefulShutdown plus Options.ForcedShutdown, then closes the
// Events and Errors channels. It does not wait for event dispatches already
// handed to the indexing service; Start waits for those before it returns.
// Safe to call more than once.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		close(h.stopCh)
		h.debouncer.Stop()
		if h.useFsnotify && h.fsWatcher != nil {
			_ = h.fsWatcher.Close()
		}
		if h.pollWatcher != nil {
			_ = h.pollWatcher.Stop()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(h.opts.GracefulShutdown + h.opts.ForcedShutdown):
		slog.Warn("watcher shutdown exceeded grace period, forcing close")
	}

	close(h.events)
	close(h.errors)
	h.releaseOverlapGuard()
	return nil
}

// Events returns the channel of batched, debounced file events.
func (h *HybridWatcher) Events() <-chan []FileEvent {
	return h.events
}

// Errors returns the channel of non-fatal watcher errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// IsHealthy reports whether the watcher is still running.
func (h *HybridWatcher) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.stopped
}

// WatcherType reports which underlying mechanism is active: "fsnotify" or
// "polling".
func (h *HybridWatcher) WatcherType() string {
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// RootPath returns the root directory being watched.
func (h *HybridWatcher) RootPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rootPath
}
