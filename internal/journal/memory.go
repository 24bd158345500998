package journal

import (
	"context"
	"fmt"
	"sync"
)

// MemoryJournal is an in-memory, thread-safe Journal.
type MemoryJournal struct {
	mu          sync.RWMutex
	entries     []*Entry
	bySignature map[string]int
}

// NewMemory creates a MemoryJournal holding only the genesis entry.
func NewMemory() *MemoryJournal {
	return &MemoryJournal{
		entries:     []*Entry{genesisEntry()},
		bySignature: make(map[string]int),
	}
}

// Append implements Journal.
func (j *MemoryJournal) Append(_ context.Context, rec Record) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if slot, ok := j.bySignature[rec.Signature]; ok && rec.Signature != "" {
		return nil, fmt.Errorf("%w: %s at slot %d", ErrDuplicate, rec.Signature, slot)
	}
	prev := j.entries[len(j.entries)-1]
	entry := &Entry{
		Index:       len(j.entries),
		Timestamp:   now(),
		Signature:   rec.Signature,
		Program:     rec.Program,
		Instruction: rec.Instruction,
		Payer:       rec.Payer,
		DataHash:    sha256Sum(rec.Payload),
		PrevHash:    prev.Hash,
	}
	entry.Hash = hashEntry(entry)
	j.entries = append(j.entries, entry)
	if rec.Signature != "" {
		j.bySignature[rec.Signature] = entry.Index
	}

	out := *entry
	return &out, nil
}

// Get implements Journal.
func (j *MemoryJournal) Get(_ context.Context, slot int) (*Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if slot < 0 || slot >= len(j.entries) {
		return nil, fmt.Errorf("slot %d: %w", slot, ErrNotFound)
	}
	out := *j.entries[slot]
	return &out, nil
}

// Len implements Journal.
func (j *MemoryJournal) Len(_ context.Context) (int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries), nil
}

// Verify implements Journal.
func (j *MemoryJournal) Verify(_ context.Context) error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	for i, curr := range j.entries {
		if i == 0 {
			if curr.Hash != GenesisHash {
				return fmt.Errorf("genesis entry has wrong hash: got %q", curr.Hash)
			}
			continue
		}
		if err := verifyLink(j.entries[i-1], curr); err != nil {
			return err
		}
	}
	return nil
}

// Root implements Journal.
func (j *MemoryJournal) Root(_ context.Context) (string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.entries[len(j.entries)-1].Hash, nil
}

// Contains implements Journal.
func (j *MemoryJournal) Contains(_ context.Context, signature string) (bool, error) {
	if signature == "" {
		return false, nil
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, ok := j.bySignature[signature]
	return ok, nil
}
