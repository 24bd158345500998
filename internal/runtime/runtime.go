// Package runtime executes signed transactions against the account store.
//
// For every transaction the Processor verifies signatures, rejects replays,
// resolves the program instruction, locks the accounts it touches, runs the
// instruction against copies of those accounts and commits the result
// atomically. After the instruction returns, the runtime checks that it
// only changed what it was allowed to change:
//
//   - read-only accounts are unchanged
//   - data and owner changes happen only on accounts the program owns
//     (or on fresh accounts it just created through CreateAccount)
//   - lamports leave an account only if the program owns it or the account
//     signed the transaction
//   - the lamport total is conserved
//
// Committed transactions are appended to the journal, which assigns each one
// a slot in the node's total order of writes. The journal is also the durable
// record of which signatures were applied: a signature found there is
// rejected as already processed however long ago it was applied, so the
// replay guard only has to cover transactions still in flight.
package runtime

import (
	"context"

	"github.com/jmerrifield20/linkboard/internal/accounts"
	"github.com/jmerrifield20/linkboard/internal/journal"
	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/txn"
)

// AccessSpec declares one account an instruction expects.
type AccessSpec struct {
	Name     string
	Signer   bool
	Writable bool
}

// Instruction is a resolved program instruction.
type Instruction struct {
	Name     string
	Accounts []AccessSpec
	Execute  func(ic *InvokeContext) error
}

// Program is implemented by on-chain programs hosted by the node.
type Program interface {
	// ID returns the program's address.
	ID() address.Address

	// Resolve maps instruction data to an instruction and its argument bytes.
	Resolve(data []byte) (*Instruction, []byte, error)
}

// Committer applies account changes and appends their journal entry as one
// atomic step. Without one, the Processor commits through Store.Update and
// appends to the journal afterwards.
type Committer interface {
	Commit(ctx context.Context, addrs []address.Address, fn accounts.UpdateFunc, rec journal.Record) (*journal.Entry, error)
}

// Receipt describes an applied transaction. Slot is 0 when the transaction
// was applied but could not be journaled.
type Receipt struct {
	Signature   string `json:"signature"`
	Instruction string `json:"instruction"`
	Slot        int    `json:"slot,omitempty"`
}

// InvokeContext is what an instruction sees while it runs.
type InvokeContext struct {
	ctx       context.Context
	ProgramID address.Address
	Accounts  []*accounts.Account
	Metas     []txn.AccountMeta
	Args      []byte
	rent      Rent
}

// Context returns the request context of the transaction.
func (ic *InvokeContext) Context() context.Context { return ic.ctx }

// Rent returns the rent parameters in force.
func (ic *InvokeContext) Rent() Rent { return ic.rent }

// IsSigner reports whether the account at position i signed the transaction.
func (ic *InvokeContext) IsSigner(i int) bool { return ic.Metas[i].Signer }

// IsWritable reports whether the account at position i is writable.
func (ic *InvokeContext) IsWritable(i int) bool { return ic.Metas[i].Writable }

func (ic *InvokeContext) indexOf(a *accounts.Account) int {
	for i, acct := range ic.Accounts {
		if acct == a {
			return i
		}
	}
	return -1
}
