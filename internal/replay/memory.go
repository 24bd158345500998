package replay

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is a thread-safe in-process Guard. Expired ids are dropped by
// Evict, which the node calls periodically.
type MemoryGuard struct {
	mu      sync.Mutex
	seen    map[string]time.Time // id → expiry
	window  time.Duration
	nowFunc func() time.Time
}

// NewMemory creates a MemoryGuard remembering ids for window.
func NewMemory(window time.Duration) *MemoryGuard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryGuard{
		seen:    make(map[string]time.Time),
		window:  window,
		nowFunc: time.Now,
	}
}

// Reserve implements Guard.
func (g *MemoryGuard) Reserve(_ context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.nowFunc()
	if exp, ok := g.seen[id]; ok && now.Before(exp) {
		return false, nil
	}
	g.seen[id] = now.Add(g.window)
	return true, nil
}

// Release implements Guard.
func (g *MemoryGuard) Release(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, id)
	return nil
}

// Evict removes expired ids and returns how many were removed.
func (g *MemoryGuard) Evict() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.nowFunc()
	n := 0
	for id, exp := range g.seen {
		if !now.Before(exp) {
			delete(g.seen, id)
			n++
		}
	}
	return n
}

// Len returns the number of remembered ids, expired ones included.
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}
