package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHybridWatcher_Start_InvalidPath_ReturnsError tests that starting a
// watcher on a non-existent path returns an error.
func TestHybridWatcher_Start_InvalidPath_ReturnsError(t *testing.T) {
	opts := DefaultOptions()
	w, err := NewHybridWatcher(newTestWatcherService(), opts)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	err = w.Start(context.Background(), "/nonexistent/path/that/does/not/exist", false)

	assert.Error(t, err, "Start should fail for a nonexistent root")
}

// TestHybridWatcher_Errors_ChannelIsOpen tests that the Errors channel
// is properly initialized and can receive errors.
func TestHybridWatcher_Errors_ChannelIsOpen(t *testing.T) {
	opts := DefaultOptions()
	w, err := NewHybridWatcher(newTestWatcherService(), opts)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.NotNil(t, w.Errors(), "Errors channel should not be nil")
}

// TestHybridWatcher_Stop_ClosesChannels_ErrorPropagation tests that stopping
// the watcher properly closes the event and error channels, and that
// repeated stops are safe.
func TestHybridWatcher_Stop_ClosesChannels_ErrorPropagation(t *testing.T) {
	tmpDir := t.TempDir()
	opts := Options{
		DebounceWindow:  10 * time.Millisecond,
		EventBufferSize: 10,
	}.WithDefaults()

	w, err := NewHybridWatcher(newTestWatcherService(), opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		close(started)
		_ = w.Start(ctx, tmpDir, false)
	}()
	<-started
	time.Sleep(100 * time.Millisecond)

	err = w.Stop()
	require.NoError(t, err)

	_, open := <-w.Events()
	assert.False(t, open, "events channel should be closed after Stop")
	_, open = <-w.Errors()
	assert.False(t, open, "errors channel should be closed after Stop")

	time.Sleep(100 * time.Millisecond)

	err = w.Stop()
	assert.NoError(t, err, "multiple stops should be safe")
}

// TestHybridWatcher_ContextCancel_StopsCleanly tests that canceling the
// context stops the watcher cleanly without hanging.
func TestHybridWatcher_ContextCancel_StopsCleanly(t *testing.T) {
	tmpDir := t.TempDir()
	opts := Options{
		DebounceWindow:  10 * time.Millisecond,
		EventBufferSize: 10,
	}.WithDefaults()

	w, err := NewHybridWatcher(newTestWatcherService(), opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	startErr := make(chan error, 1)
	go func() {
		startErr <- w.Start(ctx, tmpDir, false)
	}()

	time.Sleep(100 * time.Millisecond)

	cancel()

	select {
	case err := <-startErr:
		if err != nil && err != context.Canceled {
			t.Logf("Start returned with: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop within timeout after context cancel")
	}
}

// TestHybridWatcher_WatchDeletedDirectory_HandlesGracefully tests that
// the watcher handles the watched directory being deleted without panicking.
func TestHybridWatcher_WatchDeletedDirectory_HandlesGracefully(t *testing.T) {
	tmpDir := t.TempDir()
	watchDir := filepath.Join(tmpDir, "watched")
	require.NoError(t, os.MkdirAll(watchDir, 0o755))

	opts := Options{
		DebounceWindow:  10 * time.Millisecond,
		EventBufferSize: 10,
	}.WithDefaults()

	w, err := NewHybridWatcher(newTestWatcherService(), opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		close(started)
		_ = w.Start(ctx, watchDir, false)
	}()
	<-started
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.RemoveAll(watchDir))

	timeout := time.After(1 * time.Second)
	for {
		select {
		case <-w.Events():
		case <-w.Errors():
		case <-timeout:
			return
		}
	}
}

// TestPollingWatcher_Start_InvalidPath_ReturnsError tests the polling
// watcher with an invalid path.
func TestPollingWatcher_Start_InvalidPath_ReturnsError(t *testing.T) {
	w := NewPollingWatcher(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := w.Start(ctx, "/nonexistent/path")

	assert.Error(t, err, "Start should fail for non-existent path")
}

// TestDebouncer_Stop_ClosesOutput_ErrorPropagation tests that stopping
// the debouncer properly closes the output channel.
func TestDebouncer_Stop_ClosesOutput_ErrorPropagation(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	d.Stop()

	select {
	case _, ok := <-d.Output():
		assert.False(t, ok, "output channel should be closed")
	case <-time.After(100 * time.Millisecond):
	}
}

// TestHybridWatcher_ConcurrentStop_Safe tests that concurrent stops
// don't cause a panic.
func TestHybridWatcher_ConcurrentStop_Safe(t *testing.T) {
	tmpDir := t.TempDir()
	opts := DefaultOptions()

	w, err := NewHybridWatcher(newTestWatcherService(), opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Start(ctx, tmpDir, false)
	}()
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			_ = w.Stop()
			done <- struct{}{}
		}()
	}

	for i := 0; i < 10; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("concurrent stops didn't complete in time")
		}
	}
}
