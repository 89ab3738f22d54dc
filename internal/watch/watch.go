// internal/watch/watch.go
// Package watch observes the archive directory for file changes and invokes
// a callback so the session can flag itself stale. The callback is debounced;
// bulk copies into the archive fire it once, not per file.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long the watcher waits for the event burst to settle.
const debounce = 2 * time.Second

// watchedSubdirs are the structured-layout directories registered in
// addition to the archive root. Missing subdirs are skipped.
var watchedSubdirs = []string{"subtitles", "summaries", "comments", "videos", "info"}

// Start watches dir until ctx is cancelled. onChange runs at most once per
// debounce window, on the watcher goroutine.
func Start(ctx context.Context, dir string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}
	for _, sub := range watchedSubdirs {
		path := filepath.Join(dir, sub)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("failed to watch subdir", "path", path, "error", err)
			}
		}
	}

	go func() {
		defer w.Close()

		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				slog.Debug("archive change observed", "path", ev.Name, "op", ev.Op.String())
				if timer == nil {
					timer = time.NewTimer(debounce)
					timerC = timer.C
				} else {
					timer.Reset(debounce)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("archive watcher error", "error", err)
			case <-timerC:
				timer = nil
				timerC = nil
				onChange()
			}
		}
	}()

	slog.Info("archive watcher started", "dir", dir)
	return nil
}
