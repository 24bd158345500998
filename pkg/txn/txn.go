// Package txn defines signed transactions submitted to a linkboard node.
//
// A Message names the program to invoke, the accounts it touches (with their
// signer and writable flags), opaque instruction data and a client nonce. The
// canonical wire encoding of the Message is what every signer signs. A
// Transaction carries one signature per signer account, in the order the
// signer accounts appear in the Message.
package txn

import (
	"errors"
	"fmt"

	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/wire"
)

// messageVersion is the first byte of every signing payload.
const messageVersion = 1

var (
	// ErrSignatureCount is returned when the number of signatures does not
	// match the number of signer accounts.
	ErrSignatureCount = errors.New("signature count does not match signer accounts")

	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrMissingSigner is returned by New when a signer account has no keypair.
	ErrMissingSigner = errors.New("missing keypair for signer account")

	// ErrNoAccounts is returned for a message that references no accounts.
	ErrNoAccounts = errors.New("message references no accounts")
)

// AccountMeta describes how an instruction uses one account.
type AccountMeta struct {
	Address  address.Address `json:"address"`
	Signer   bool            `json:"signer"`
	Writable bool            `json:"writable"`
}

// Message is the unsigned body of a transaction.
type Message struct {
	ProgramID address.Address `json:"program_id"`
	Accounts  []AccountMeta   `json:"accounts"`
	Data      []byte          `json:"data"`
	Nonce     uint64          `json:"nonce"`
}

// Bytes returns the canonical signing payload of the message.
func (m *Message) Bytes() []byte {
	w := wire.NewWriter(1 + 32 + 4 + len(m.Accounts)*33 + 4 + len(m.Data) + 8)
	w.WriteU8(messageVersion)
	w.WriteFixed(m.ProgramID[:])
	w.WriteU32(uint32(len(m.Accounts)))
	for _, a := range m.Accounts {
		w.WriteFixed(a.Address[:])
		var flags uint8
		if a.Signer {
			flags |= 1
		}
		if a.Writable {
			flags |= 2
		}
		w.WriteU8(flags)
	}
	w.WriteBytes(m.Data)
	w.WriteU64(m.Nonce)
	return w.Bytes()
}

// Signers returns the signer addresses in message order.
func (m *Message) Signers() []address.Address {
	var out []address.Address
	for _, a := range m.Accounts {
		if a.Signer {
			out = append(out, a.Address)
		}
	}
	return out
}

// FeePayer returns the first signer of the message, or the zero address when
// the message has none.
func (m *Message) FeePayer() address.Address {
	for _, a := range m.Accounts {
		if a.Signer {
			return a.Address
		}
	}
	return address.Zero
}

// Transaction is a signed Message.
type Transaction struct {
	Message    Message             `json:"message"`
	Signatures []address.Signature `json:"signatures"`
}

// New signs msg with the given keypairs. Every signer account in msg must have
// a matching keypair; extra keypairs are ignored.
func New(msg Message, keys ...*address.Keypair) (*Transaction, error) {
	if len(msg.Accounts) == 0 {
		return nil, ErrNoAccounts
	}
	byAddr := make(map[address.Address]*address.Keypair, len(keys))
	for _, k := range keys {
		byAddr[k.Address()] = k
	}

	payload := msg.Bytes()
	tx := &Transaction{Message: msg}
	for _, signer := range msg.Signers() {
		k, ok := byAddr[signer]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSigner, signer)
		}
		tx.Signatures = append(tx.Signatures, k.Sign(payload))
	}
	return tx, nil
}

// ID returns the transaction identifier: the base58 form of the first
// signature. It is empty for an unsigned transaction.
func (t *Transaction) ID() string {
	if len(t.Signatures) == 0 {
		return ""
	}
	return t.Signatures[0].String()
}

// Verify checks that there is exactly one valid signature per signer account.
func (t *Transaction) Verify() error {
	if len(t.Message.Accounts) == 0 {
		return ErrNoAccounts
	}
	signers := t.Message.Signers()
	if len(signers) == 0 || len(signers) != len(t.Signatures) {
		return fmt.Errorf("%w: %d signers, %d signatures", ErrSignatureCount, len(signers), len(t.Signatures))
	}
	payload := t.Message.Bytes()
	for i, signer := range signers {
		if !address.Verify(signer, payload, t.Signatures[i]) {
			return fmt.Errorf("%w for signer %s", ErrInvalidSignature, signer)
		}
	}
	return nil
}

// IsSigner reports whether addr signed the transaction's message.
func (m *Message) IsSigner(addr address.Address) bool {
	for _, a := range m.Accounts {
		if a.Signer && a.Address == addr {
			return true
		}
	}
	return false
}
