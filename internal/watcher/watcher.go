// Package watcher implements the filesystem watcher (C5): it subscribes
// recursively to a root directory and translates OS events into calls on
// the indexing service, registering new subdirectories as they appear.
// Grounded on the teacher's internal/watcher package (HybridWatcher,
// Debouncer, PollingWatcher) and on
// original_source/.../watcher/FileSystemWatcher.java for lifecycle
// sequencing.
package watcher

import (
	"time"
)

// Operation is the kind of filesystem change an event represents.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a single filesystem change.
type FileEvent struct {
	// Path is the absolute path to the file or directory.
	Path string

	// Operation is the type of filesystem operation.
	Operation Operation

	// IsDir indicates if the event is for a directory.
	IsDir bool

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Options configures watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced events
	// for the same path. Default: 150ms.
	DebounceWindow time.Duration

	// PollInterval is the full-tree rescan interval used only when
	// fsnotify could not be initialized. Default: 2s.
	PollInterval time.Duration

	// EventBufferSize is the size of the batched-event channel buffer.
	EventBufferSize int

	// GracefulShutdown is how long Stop waits for the debouncer and the
	// underlying watcher to close before forcing shutdown. Stop does not
	// wait for in-flight event dispatches. Default: 2s.
	GracefulShutdown time.Duration

	// ForcedShutdown is the additional bound Stop allows after
	// GracefulShutdown elapses, Default: 1s.
	ForcedShutdown time.Duration

	// WorkerPoolSize bounds concurrent event-batch dispatch. Default: 4.
	WorkerPoolSize int
}

// DefaultOptions returns the watcher's default options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:   150 * time.Millisecond,
		PollInterval:     2 * time.Second,
		EventBufferSize:  256,
		GracefulShutdown: 2 * time.Second,
		ForcedShutdown:   1 * time.Second,
		WorkerPoolSize:   4,
	}
}

// WithDefaults returns o with zero-valued fields filled from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = d.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = d.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = d.EventBufferSize
	}
	if o.GracefulShutdown == 0 {
		o.GracefulShutdown = d.GracefulShutdown
	}
	if o.ForcedShutdown == 0 {
		o.ForcedShutdown = d.ForcedShutdown
	}
	if o.WorkerPoolSize == 0 {
		o.WorkerPoolSize = d.WorkerPoolSize
	}
	return o
}
