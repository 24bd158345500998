package accounts

import (
	"context"
	"sync"

	"github.com/jmerrifield20/linkboard/pkg/address"
)

// MemoryStore is an in-memory, thread-safe Store implementation.
// It is primarily useful for testing and for single-process deployments
// that do not require durable persistence across restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[address.Address]*Account
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[address.Address]*Account)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, addr address.Address) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[addr]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

// Update implements Store. The whole callback runs under the store's write
// lock, so updates are applied one at a time.
func (s *MemoryStore) Update(_ context.Context, addrs []address.Address, fn UpdateFunc) error {
	if err := checkDistinct(addrs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := make([]*Account, len(addrs))
	working := make([]*Account, len(addrs))
	for i, addr := range addrs {
		if a, ok := s.accounts[addr]; ok {
			before[i] = a
		} else {
			before[i] = empty(addr)
		}
		working[i] = before[i].Clone()
	}

	if err := fn(working); err != nil {
		return err
	}

	for i, a := range working {
		a.Address = addrs[i]
		if a.Equal(before[i]) {
			continue
		}
		if !a.Exists() {
			delete(s.accounts, a.Address)
			continue
		}
		s.accounts[a.Address] = a.Clone()
	}
	return nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }
