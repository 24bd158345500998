package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenesisHash is the hash of the genesis entry. Every later entry chains
// from it.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Entry is one processed transaction. Index is the transaction's slot: its
// position in the node's total order of writes.
type Entry struct {
	Index       int       `json:"slot"`
	Timestamp   time.Time `json:"timestamp"`
	Signature   string    `json:"signature"`   // transaction id, empty for genesis
	Program     string    `json:"program"`     // invoked program address
	Instruction string    `json:"instruction"` // initialize, append, airdrop, genesis
	Payer       string    `json:"payer"`       // first signer, or the credited address for airdrops
	DataHash    string    `json:"data_hash"`   // SHA-256 of the signed message bytes
	PrevHash    string    `json:"prev_hash"`
	Hash        string    `json:"hash"`
}

// Record is what the runtime hands to Append.
type Record struct {
	Signature   string
	Program     string
	Instruction string
	Payer       string
	Payload     []byte
}

// hashEntry computes the SHA-256 over an entry's fields. Never called for
// the genesis entry.
func hashEntry(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%s|%s|%s",
		e.Index, e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.Signature, e.Program, e.Instruction, e.Payer, e.DataHash, e.PrevHash,
	)
	return hex.EncodeToString(h.Sum(nil))
}

// now returns the current time at the precision PostgreSQL stores, so hashes
// computed before and after a round trip agree.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func sha256Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func genesisEntry() *Entry {
	return &Entry{
		Index:       0,
		Timestamp:   now(),
		Instruction: "genesis",
		DataHash:    GenesisHash,
		PrevHash:    GenesisHash,
		Hash:        GenesisHash,
	}
}

// verifyLink checks curr against its predecessor.
func verifyLink(prev, curr *Entry) error {
	if curr.Index != prev.Index+1 {
		return fmt.Errorf("slot gap: %d follows %d", curr.Index, prev.Index)
	}
	if curr.PrevHash != prev.Hash {
		return fmt.Errorf("hash chain broken at slot %d", curr.Index)
	}
	if curr.Hash != hashEntry(curr) {
		return fmt.Errorf("entry %d has invalid hash", curr.Index)
	}
	return nil
}
