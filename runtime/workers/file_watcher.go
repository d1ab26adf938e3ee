package workers

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"period-tracker/domain"
	"period-tracker/errors"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
)

// sniffLength is the number of bytes read to detect the MIME type of a changed file.
const sniffLength = 512

type WatchConfig struct {
	Dirs    []string
	Include []string
	Exclude []string
	Delay   time.Duration
}

// FileWatcherWorker watches source trees and emits one ChangeEvent per burst of writes.
type FileWatcherWorker struct {
	log     *slog.Logger
	config  WatchConfig
	changes chan<- domain.ChangeEvent
}

func NewFileWatcherWorker(log *slog.Logger, config WatchConfig, changes chan<- domain.ChangeEvent) *FileWatcherWorker {
	return &FileWatcherWorker{
		log:     log,
		config:  config,
		changes: changes,
	}
}

func (w *FileWatcherWorker) Run(ctx context.Context) error {
	if len(w.config.Dirs) == 0 {
		return errors.ErrNoWatchDirectories
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range lo.Uniq(w.config.Dirs) {
		if err := w.addTree(watcher, dir); err != nil {
			return err
		}
	}
	w.log.Info("Watching for file changes", "dirs", w.config.Dirs, "include", w.config.Include)

	var (
		pending = make(map[string]struct{})
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", "error", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, ev.Name); err != nil {
						w.log.Warn("Unable to watch new directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if ev.Op == fsnotify.Chmod || !w.IsSourceChange(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.config.Delay)
			} else {
				timer.Reset(w.config.Delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			change := domain.ChangeEvent{Paths: lo.Keys(pending), At: time.Now().UTC()}
			pending = make(map[string]struct{})
			if change.IsEmpty() {
				continue
			}
			select {
			case w.changes <- change:
				w.log.Debug("Changes detected", "paths", change.Paths)
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// addTree watches root and every non excluded directory below it.
func (w *FileWatcherWorker) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("unable to watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.isExcluded(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *FileWatcherWorker) isExcluded(name string) bool {
	return lo.Contains(w.config.Exclude, name)
}

// IsSourceChange reports whether a change on path should trigger a reload.
// Excluded directories are never watched so only the file itself is checked.
// Deleted files only need to match the include patterns.
func (w *FileWatcherWorker) IsSourceChange(path string) bool {
	base := filepath.Base(path)
	matched := lo.ContainsBy(w.config.Include, func(pattern string) bool {
		ok, err := filepath.Match(pattern, base)
		return err == nil && ok
	})
	if !matched {
		return false
	}
	return isText(path)
}

func isText(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return true
	}
	defer file.Close()

	buf := make([]byte, sniffLength)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return true
	}
	for mime := mimetype.Detect(buf[:n]); mime != nil; mime = mime.Parent() {
		if mime.Is("text/plain") {
			return true
		}
	}
	return false
}
