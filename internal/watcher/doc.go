// Package watcher translates filesystem changes under a root directory
// into calls on an indexing service: created and modified files matching
// the watcher's file filter are indexed, deleted files are removed, and
// newly created directories are registered recursively.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: polling, for environments where fsnotify fails (network
//     mounts, some container filesystems)
//
// Events are debounced to coalesce rapid changes from editors and bulk
// file operations before they reach the indexing service.
//
// Usage:
//
//	opts := watcher.DefaultOptions()
//	w, err := watcher.NewHybridWatcher(service, opts)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	if err := w.Start(ctx, "/path/to/project", true); err != nil {
//	    return err
//	}
package watcher
