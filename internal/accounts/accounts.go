// Package accounts stores the state of every account known to the node:
// its owning program, its lamport balance and its data.
//
// Two implementations of the Store interface are provided:
//   - MemoryStore: in-process, for testing and development.
//   - PostgresStore: durable, for production use.
package accounts

import (
	"bytes"
	"context"
	"errors"

	"github.com/jmerrifield20/linkboard/pkg/address"
)

// ErrNotFound is returned by Get when no account exists at an address.
var ErrNotFound = errors.New("account not found")

// Account is the stored state of one address.
//
// An account "exists" once it holds lamports or data. Accounts that have never
// been written are handed to Update callbacks as zero-valued accounts owned by
// the system program.
type Account struct {
	Address  address.Address `json:"address"`
	Owner    address.Address `json:"owner"`
	Lamports uint64          `json:"lamports"`
	Data     []byte          `json:"data"`
}

// Exists reports whether the account holds lamports or data.
func (a *Account) Exists() bool {
	return a.Lamports > 0 || len(a.Data) > 0
}

// Clone returns a deep copy of a.
func (a *Account) Clone() *Account {
	c := *a
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return &c
}

// Equal reports whether a and b hold identical state.
func (a *Account) Equal(b *Account) bool {
	return a.Address == b.Address &&
		a.Owner == b.Owner &&
		a.Lamports == b.Lamports &&
		bytes.Equal(a.Data, b.Data)
}

// UpdateFunc mutates the accounts passed to it in place. Returning an error
// discards every change.
type UpdateFunc func(accts []*Account) error

// Store is the persistence interface for account state.
type Store interface {
	// Get returns the account at addr, or ErrNotFound.
	Get(ctx context.Context, addr address.Address) (*Account, error)

	// Update loads the accounts at addrs (in the given order, zero-valued when
	// absent), passes copies to fn and, if fn succeeds, persists every account
	// that changed in one atomic step. Duplicate addresses are rejected.
	Update(ctx context.Context, addrs []address.Address, fn UpdateFunc) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// ErrDuplicateAccount is returned by Update when addrs repeats an address.
var ErrDuplicateAccount = errors.New("duplicate account in update")

func checkDistinct(addrs []address.Address) error {
	seen := make(map[address.Address]struct{}, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			return ErrDuplicateAccount
		}
		seen[a] = struct{}{}
	}
	return nil
}

func empty(addr address.Address) *Account {
	return &Account{Address: addr}
}
