package cache

import (
	"log/slog"
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a should survive, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiryAndCleanup(t *testing.T) {
	clock := newFakeClock()
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.Now)
	c.Set("a", "x")
	c.Set("b", "y")

	clock.Advance(30 * time.Second)
	c.Set("b", "z") // refresh b

	clock.Advance(45 * time.Second)
	m := NewManager(slog.Default())
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be gone")
	}
	if v, ok := c.Get("b"); !ok || v != "z" {
		t.Fatalf("b should be live, got %q %v", v, ok)
	}
}

func TestManagerStartStop(t *testing.T) {
	m := NewManager(nil)
	m.Register(NewLRUStore[int](4, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
}
