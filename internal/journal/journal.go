// Package journal implements the node's transaction journal: an append-only,
// hash-chained record of every transaction the node has applied, in the order
// it applied them.
//
// The chain begins with a well-known genesis entry whose Hash equals
// GenesisHash (64 hex zeros). Every later entry records the hash of its
// predecessor, so tampering is detectable via Verify.
//
// Two implementations of the Journal interface are provided:
//   - MemoryJournal: in-process, for testing and development.
//   - PostgresJournal: durable, for production use.
package journal

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get for a slot outside the journal.
	ErrNotFound = errors.New("journal entry not found")

	// ErrDuplicate is returned by Append for a signature that is already
	// journaled. Each signed transaction occupies at most one slot.
	ErrDuplicate = errors.New("signature already journaled")
)

// Journal is the interface for the transaction journal.
type Journal interface {
	// Append adds a new entry chained to the previous one and returns it.
	Append(ctx context.Context, rec Record) (*Entry, error)

	// Get returns the entry at the given slot.
	Get(ctx context.Context, slot int) (*Entry, error)

	// Len returns the total number of entries, genesis included.
	Len(ctx context.Context) (int, error)

	// Verify walks the chain and checks hash consistency.
	// Returns nil if the chain is intact.
	Verify(ctx context.Context) error

	// Root returns the hash of the most recent entry.
	Root(ctx context.Context) (string, error)

	// Contains reports whether an entry with the given signature exists.
	Contains(ctx context.Context, signature string) (bool, error)
}
