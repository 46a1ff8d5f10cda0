package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type calls struct {
	mu    sync.Mutex
	paths []string
}

func (c *calls) record(path string) {
	c.mu.Lock()
	c.paths = append(c.paths, path)
	c.mu.Unlock()
}

func (c *calls) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.paths)
}

func startWatch(t *testing.T, dbPath string, c *calls) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = Watch(ctx, dbPath, 150*time.Millisecond, logger, c.record) }()
	time.Sleep(100 * time.Millisecond)
}

func TestWatch_BurstIsDebounced(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "almanac.db")
	c := &calls{}
	startWatch(t, dbPath, c)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(dbPath+"-wal", []byte{byte(i)}, 0o644)
	}

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		return c.count() > 0
	}, "expected a change callback")
	time.Sleep(400 * time.Millisecond)
	if n := c.count(); n != 1 {
		t.Errorf("callbacks = %d, want 1", n)
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "almanac.db")
	c := &calls{}
	startWatch(t, dbPath, c)

	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(dbPath+"-shm", []byte("x"), 0o644)

	time.Sleep(500 * time.Millisecond)
	if n := c.count(); n != 0 {
		t.Errorf("callbacks = %d, want 0", n)
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		op   fsnotify.Op
		want bool
	}{
		{"/d/almanac.db", fsnotify.Write, true},
		{"/d/almanac.db-wal", fsnotify.Write, true},
		{"/d/almanac.db-journal", fsnotify.Create, true},
		{"/d/almanac.db-shm", fsnotify.Write, false},
		{"/d/almanac.db", fsnotify.Chmod, false},
		{"/d/almanac.db.bak", fsnotify.Write, false},
		{"/d/other.db", fsnotify.Write, false},
	}
	for _, tt := range tests {
		if got := relevant(fsnotify.Event{Name: tt.name, Op: tt.op}, "almanac.db"); got != tt.want {
			t.Errorf("relevant(%s, %s) = %v, want %v", tt.name, tt.op, got, tt.want)
		}
	}
}
