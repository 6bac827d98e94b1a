package storage

import (
	"context"
	"testing"
	"time"
)

func TestMemoryPresence(t *testing.T) {
	p := NewMemoryPresence()
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	p.SetClock(func() time.Time { return now })
	ctx := context.Background()

	_ = p.Online(ctx, "a", time.Minute)
	_ = p.Online(ctx, "b", time.Hour)
	_ = p.Online(ctx, "a", time.Minute) // renew, not a second entry
	if n, _ := p.Count(ctx); n != 2 {
		t.Fatalf("count = %d", n)
	}

	now = now.Add(2 * time.Minute)
	if n, _ := p.Count(ctx); n != 1 {
		t.Fatalf("count after expiry = %d", n)
	}
	_ = p.Offline(ctx, "b")
	if n, _ := p.Count(ctx); n != 0 {
		t.Fatalf("count after offline = %d", n)
	}
}
