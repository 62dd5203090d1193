package api

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestCache_GetAfterSet(t *testing.T) {
	c := NewCache()
	c.Set("/bonfires", []byte(`[1]`), time.Minute)

	got, ok := c.Get("/bonfires")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != `[1]` {
		t.Fatalf("expected [1], got %s", got)
	}
}

func TestCache_ExpiryRemovesEntry(t *testing.T) {
	clock := newFakeClock()
	c := newCacheWithClock(clock.Now)
	c.Set("/bonfires", []byte(`[]`), time.Minute)

	clock.Advance(time.Minute)
	if _, ok := c.Get("/bonfires"); !ok {
		t.Fatal("expected entry to still be valid exactly at its ttl")
	}

	clock.Advance(time.Millisecond)
	if _, ok := c.Get("/bonfires"); ok {
		t.Fatal("expected expired entry to be absent")
	}
	if size := c.Stats().Size; size != 0 {
		t.Fatalf("expected expired entry to be removed, size=%d", size)
	}
}

func TestCache_SetOverwrites(t *testing.T) {
	c := NewCache()
	c.Set("k", []byte(`1`), time.Minute)
	c.Set("k", []byte(`2`), time.Minute)

	got, _ := c.Get("k")
	if string(got) != `2` {
		t.Fatalf("expected overwritten value 2, got %s", got)
	}
	if size := c.Stats().Size; size != 1 {
		t.Fatalf("expected size 1, got %d", size)
	}
}

func TestCache_InvalidateByPrefix(t *testing.T) {
	c := NewCache()
	c.Set("/bonfires/123/graph", []byte(`{}`), time.Minute)
	c.Set("/bonfires/123/episodes?limit=10", []byte(`[]`), time.Minute)
	c.Set("/bonfires/456/graph", []byte(`{}`), time.Minute)
	c.Set("/agents", []byte(`[]`), time.Minute)

	removed := c.InvalidateByPrefix("bonfires/123")
	if removed != 2 {
		t.Fatalf("expected 2 entries removed, got %d", removed)
	}
	if _, ok := c.peek("/bonfires/123/graph"); ok {
		t.Fatal("expected /bonfires/123/graph to be invalidated")
	}
	if _, ok := c.peek("/bonfires/456/graph"); !ok {
		t.Fatal("expected /bonfires/456/graph to survive")
	}
	if _, ok := c.peek("/agents"); !ok {
		t.Fatal("expected /agents to survive")
	}
}

func TestCache_InvalidateReportsRemoval(t *testing.T) {
	c := NewCache()
	c.Set("/bonfires/1", []byte(`{}`), time.Minute)
	c.Set("/bonfires/12", []byte(`{}`), time.Minute)

	if !c.Invalidate("/bonfires/1") {
		t.Fatal("expected an entry to be removed")
	}
	if c.Invalidate("/bonfires/1") {
		t.Fatal("expected nothing left to remove")
	}
	if _, ok := c.peek("/bonfires/12"); !ok {
		t.Fatal("expected /bonfires/12 to survive")
	}
}

func TestCache_StatsAndClear(t *testing.T) {
	clock := newFakeClock()
	c := newCacheWithClock(clock.Now)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("k", []byte(`"v"`), 10*time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit")
	}

	clock.Advance(4 * time.Second)
	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %+v", stats)
	}
	if stats.HitRate != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %v", stats.HitRate)
	}
	if stats.Size != 1 {
		t.Fatalf("expected size 1, got %d", stats.Size)
	}
	if stats.AverageTTL != 6*time.Second {
		t.Fatalf("expected 6s average remaining ttl, got %v", stats.AverageTTL)
	}

	created := stats.CreatedAt
	clock.Advance(time.Second)
	c.Clear()
	stats = c.Stats()
	if stats.Hits != 0 || stats.Misses != 0 || stats.Size != 0 || stats.HitRate != 0 {
		t.Fatalf("expected zeroed stats after clear, got %+v", stats)
	}
	if !stats.CreatedAt.After(created) {
		t.Fatalf("expected creation time to be reset, got %v (was %v)", stats.CreatedAt, created)
	}
}
