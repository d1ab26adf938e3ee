package workers

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"period-tracker/domain"
	"period-tracker/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newWatchConfig(dir string) WatchConfig {
	return WatchConfig{
		Dirs:    []string{dir},
		Include: []string{"*.go"},
		Exclude: []string{".git", "vendor"},
		Delay:   100 * time.Millisecond,
	}
}

func startWatcher(t *testing.T, config WatchConfig) (chan domain.ChangeEvent, context.CancelFunc) {
	t.Helper()
	changes := make(chan domain.ChangeEvent, 10)
	watcher := NewFileWatcherWorker(slog.Default(), config, changes)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	// Let the watcher register its directories
	time.Sleep(100 * time.Millisecond)
	return changes, cancel
}

func TestFileWatcherWorker_CoalescesBurst(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "main.go")
	req.NoError(os.WriteFile(file, []byte("package main\n"), 0o644))

	changes, _ := startWatcher(t, newWatchConfig(dir))

	// When the same file is saved several times in a burst
	for i := 0; i < 5; i++ {
		req.NoError(os.WriteFile(file, []byte("package main\n\nfunc main() {}\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	// Then exactly one change event is emitted
	select {
	case change := <-changes:
		req.Equal([]string{file}, change.Paths)
	case <-time.After(2 * time.Second):
		req.Fail("expected a change event")
	}
	select {
	case change := <-changes:
		req.Failf("unexpected second event", "%v", change.Paths)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestFileWatcherWorker_IgnoresNonMatchingAndExcluded(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	req.NoError(os.Mkdir(filepath.Join(dir, "vendor"), 0o755))

	changes, _ := startWatcher(t, newWatchConfig(dir))

	// When a non matching file and a file in an excluded directory change
	req.NoError(os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# notes\n"), 0o644))
	req.NoError(os.WriteFile(filepath.Join(dir, "vendor", "dep.go"), []byte("package dep\n"), 0o644))

	// Then nothing is emitted
	select {
	case change := <-changes:
		req.Failf("unexpected event", "%v", change.Paths)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestFileWatcherWorker_WatchesNewDirectories(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	changes, _ := startWatcher(t, newWatchConfig(dir))

	// Given a directory created after the watcher started
	sub := filepath.Join(dir, "pkg")
	req.NoError(os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)

	// When a source file is written inside it
	file := filepath.Join(sub, "pkg.go")
	req.NoError(os.WriteFile(file, []byte("package pkg\n"), 0o644))

	// Then the change is reported
	select {
	case change := <-changes:
		req.Contains(change.Paths, file)
	case <-time.After(2 * time.Second):
		req.Fail("expected a change event")
	}
}

func TestFileWatcherWorker_IsSourceChange(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	text := filepath.Join(dir, "main.go")
	binary := filepath.Join(dir, "blob.go")
	req.NoError(os.WriteFile(text, []byte("package main\n"), 0o644))
	req.NoError(os.WriteFile(binary, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}, 0o644))

	w := NewFileWatcherWorker(slog.Default(), newWatchConfig(dir), nil)

	req.True(w.IsSourceChange(text))
	req.False(w.IsSourceChange(binary))
	req.False(w.IsSourceChange(filepath.Join(dir, "README.md")))
	// Deleted files still count when they match
	req.True(w.IsSourceChange(filepath.Join(dir, "gone.go")))
}

func TestFileWatcherWorker_NoDirectory(t *testing.T) {
	req := require.New(t)
	w := NewFileWatcherWorker(slog.Default(), WatchConfig{}, nil)
	req.ErrorIs(w.Run(context.Background()), errors.ErrNoWatchDirectories)
}
