package replay

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGuard_reserveOnce(t *testing.T) {
	g := NewMemory(time.Minute)
	ctx := context.Background()

	ok, err := g.Reserve(ctx, "sig1")
	if err != nil || !ok {
		t.Fatalf("first Reserve: ok=%v err=%v", ok, err)
	}
	ok, _ = g.Reserve(ctx, "sig1")
	if ok {
		t.Error("second Reserve of the same id succeeded")
	}
	ok, _ = g.Reserve(ctx, "sig2")
	if !ok {
		t.Error("Reserve of a different id failed")
	}
}

func TestMemoryGuard_release(t *testing.T) {
	g := NewMemory(time.Minute)
	ctx := context.Background()

	_, _ = g.Reserve(ctx, "sig1")
	if err := g.Release(ctx, "sig1"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := g.Reserve(ctx, "sig1"); !ok {
		t.Error("Reserve after Release failed")
	}
}

func TestMemoryGuard_expiry(t *testing.T) {
	g := NewMemory(time.Minute)
	ctx := context.Background()
	now := time.Now()
	g.nowFunc = func() time.Time { return now }

	_, _ = g.Reserve(ctx, "old")
	now = now.Add(2 * time.Minute)
	_, _ = g.Reserve(ctx, "fresh")

	if ok, _ := g.Reserve(ctx, "old"); !ok {
		t.Error("expired id could not be reserved again")
	}

	now = now.Add(2 * time.Minute)
	if n := g.Evict(); n != 2 {
		t.Errorf("Evict(): removed %d, want 2", n)
	}
	if g.Len() != 0 {
		t.Errorf("Len() after eviction: %d", g.Len())
	}
}

func TestNewMemory_defaultWindow(t *testing.T) {
	g := NewMemory(0)
	if g.window != DefaultWindow {
		t.Errorf("window: got %v, want %v", g.window, DefaultWindow)
	}
}
