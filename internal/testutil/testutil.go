// Package testutil provides shared test helpers for databases and holiday sources.
package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/almanac/internal/holidays"
	"github.com/starford/almanac/internal/store"
)

// TestStore creates a temporary SQLite database that is automatically cleaned up.
func TestStore(t *testing.T, opts ...store.Option) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "almanac-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// FakeSource is a holidays.Source that serves canned results and counts calls.
type FakeSource struct {
	mu       sync.Mutex
	Holidays map[int][]holidays.Holiday
	Err      error
	calls    map[int]int
}

// Fetch returns the canned holidays for year, or Err when set.
func (s *FakeSource) Fetch(_ context.Context, year int) ([]holidays.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[int]int)
	}
	s.calls[year]++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Holidays[year], nil
}

// Calls returns how many times Fetch ran for year.
func (s *FakeSource) Calls(year int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[year]
}
