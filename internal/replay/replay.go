// Package replay keeps track of recently processed transaction ids so the
// node applies each signed transaction at most once.
//
// Ids are remembered for a fixed window. The guard stops concurrent and
// recent resubmissions cheaply; the transaction journal remains the durable
// record of every applied id, so forgetting an id never lets it apply twice.
// Clients that want the same effect twice (for example appending the same
// link again) sign a new message with a fresh nonce, which yields a
// different id.
package replay

import (
	"context"
	"time"
)

// DefaultWindow is how long a transaction id is remembered when no window is
// configured.
const DefaultWindow = 10 * time.Minute

// Guard records transaction ids.
type Guard interface {
	// Reserve marks id as seen. It returns false if id was already reserved
	// within the window.
	Reserve(ctx context.Context, id string) (bool, error)

	// Release forgets id so that it may be submitted again. Used when a
	// transaction fails before any state was written.
	Release(ctx context.Context, id string) error
}
