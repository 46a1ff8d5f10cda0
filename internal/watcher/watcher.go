// Package watcher notices changes made to the calendar database by other
// processes, such as a second instance or a restored backup.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of writes one SQLite commit produces.
const DefaultDebounce = 300 * time.Millisecond

// Callback is called once per burst of changes with the last file touched.
type Callback func(path string)

// Watch observes the directory holding dbPath and calls cb after writes to
// the database or its journal files settle. It returns when ctx is cancelled.
func Watch(ctx context.Context, dbPath string, debounce time.Duration, logger *slog.Logger, cb Callback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return err
	}
	dir, base := filepath.Split(abs)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("db", abs))

	var timer *time.Timer
	var fire <-chan time.Time
	var last string

	schedule := func(path string) {
		last = path
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			timer = nil
			fire = nil
			logger.Debug("watcher: database changed", slog.String("path", last))
			if cb != nil {
				cb(last)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, base) {
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && filepath.Base(ev.Name) == base {
				logger.Warn("watcher: database file replaced", slog.String("path", ev.Name))
			}
			schedule(ev.Name)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant keeps content changes to the database file and its WAL or
// rollback journal. The shared-memory index changes on reads and is ignored.
func relevant(ev fsnotify.Event, base string) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(ev.Name)
	if !strings.HasPrefix(name, base) {
		return false
	}
	switch strings.TrimPrefix(name, base) {
	case "", "-wal", "-journal":
		return true
	}
	return false
}
