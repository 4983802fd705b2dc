package redis

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestGenKeyShape(t *testing.T) {
	key := genKey("diagram", "sess-1", "derivatives", "graph TD\nA-->B")
	parts := strings.Split(key, ":")
	if len(parts) != 4 || parts[0] != "gen" || parts[1] != "diagram" || parts[2] != "sess-1" {
		t.Fatalf("key = %q", key)
	}
	if len(parts[3]) != 16 {
		t.Fatalf("digest length %d, want 16", len(parts[3]))
	}
}

func TestGenKeyTruncationCollapses(t *testing.T) {
	longA := strings.Repeat("c", 300) + "tail-one"
	longB := strings.Repeat("c", 300) + "tail-two"
	// Beyond the truncation point the content no longer matters.
	if genKey("image", "s", "concept", longA) != genKey("image", "s", "concept", longB) {
		t.Fatalf("keys differ past truncation")
	}
	if genKey("image", "s", "concept", "short") == genKey("image", "s", "concept", "other") {
		t.Fatalf("distinct short contents collided")
	}
}

func TestGenKeySessionScoped(t *testing.T) {
	a := genKey("diagram", "sess-a", "c", "x")
	b := genKey("diagram", "sess-b", "c", "x")
	if a == b {
		t.Fatalf("sessions share a key: %s", a)
	}
}

func TestMemGenCacheRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := newMemGenCache(30*time.Minute, clock)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "diagram", "s", "concept", "chart"); ok {
		t.Fatalf("hit on empty cache")
	}

	c.Set(ctx, "diagram", "s", "concept", "chart", "graph TD\nA-->B")
	got, ok := c.Get(ctx, "diagram", "s", "concept", "chart")
	if !ok || got != "graph TD\nA-->B" {
		t.Fatalf("got %q ok=%v", got, ok)
	}

	// Different kind, same inputs: separate entry.
	if _, ok := c.Get(ctx, "image", "s", "concept", "chart"); ok {
		t.Fatalf("kind leaked across entries")
	}
}

func TestMemGenCacheExpiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := newMemGenCache(30*time.Minute, clock)
	ctx := context.Background()

	c.Set(ctx, "diagram", "s", "concept", "chart", "v")
	now = now.Add(31 * time.Minute)
	if _, ok := c.Get(ctx, "diagram", "s", "concept", "chart"); ok {
		t.Fatalf("expired entry served")
	}
	if len(c.m) != 0 {
		t.Fatalf("expired entry not dropped")
	}
}

func TestMemGenCacheEviction(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := newMemGenCache(time.Hour, clock)
	ctx := context.Background()

	for i := 0; i < genCacheMaxEntries; i++ {
		c.Set(ctx, "diagram", "s", "concept", "content-"+strconv.Itoa(i), "v")
	}
	if len(c.m) != genCacheMaxEntries {
		t.Fatalf("cache holds %d entries, want %d", len(c.m), genCacheMaxEntries)
	}
	c.Set(ctx, "diagram", "s", "concept", "one more", "v")
	if len(c.m) > genCacheMaxEntries {
		t.Fatalf("cache grew past cap: %d", len(c.m))
	}
}
