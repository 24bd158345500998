// Package board defines the board program's public surface: its program
// address, the layout of a board account and the instructions it accepts.
//
// A board account holds a count of entries and the entries themselves, in
// submission order. Account data is laid out as
//
//	[0:8]   account discriminator
//	[8:16]  total entries, u64 little-endian
//	[16:20] entry count, u32 little-endian
//	...     entries: u32-prefixed link, then the 32-byte submitter address
//
// followed by zero padding up to Space bytes.
package board

import (
	"crypto/sha256"

	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/wire"
)

// Space is the fixed allocation of a board account, discriminator included.
const Space = 9000

// DiscriminatorSize is the length of account and instruction discriminators.
const DiscriminatorSize = 8

const (
	headerSize   = DiscriminatorSize + 8 + 4
	minEntrySize = 4 + address.Size
)

// ProgramID is the address of the board program.
var ProgramID = address.Derive([]byte("linkboard"), []byte("board-program"))

// AccountDiscriminator marks account data written by the board program.
var AccountDiscriminator = discriminator("account:Board")

func discriminator(name string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte(name))
	var d [DiscriminatorSize]byte
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// Entry is one submitted link and the address that submitted it.
type Entry struct {
	Link      string          `json:"link"`
	Submitter address.Address `json:"submitter"`
}

// Board is the decoded state of a board account.
type Board struct {
	TotalEntries uint64  `json:"total_entries"`
	Entries      []Entry `json:"entries"`
}

// Append adds e to the end of the board and increments the count.
func (b *Board) Append(e Entry) {
	b.Entries = append(b.Entries, e)
	b.TotalEntries++
}

// EncodedSize returns the number of account bytes the board occupies,
// discriminator included.
func (b *Board) EncodedSize() int {
	n := headerSize
	for _, e := range b.Entries {
		n += 4 + len(e.Link) + address.Size
	}
	return n
}

// MaxEntries returns how many entries with links of linkLen bytes fit in a
// freshly initialised board.
func MaxEntries(linkLen int) int {
	return (Space - headerSize) / (4 + linkLen + address.Size)
}

// MarshalInto writes the board into dst, which is normally the full account
// data. Bytes past the encoded board are zeroed. It returns
// ErrCapacityExceeded, leaving dst untouched, when the board does not fit.
func (b *Board) MarshalInto(dst []byte) error {
	size := b.EncodedSize()
	if size > len(dst) {
		return capacityError(size, len(dst))
	}

	w := wire.NewWriter(size)
	w.WriteFixed(AccountDiscriminator[:])
	w.WriteU64(b.TotalEntries)
	w.WriteU32(uint32(len(b.Entries)))
	for _, e := range b.Entries {
		w.WriteString(e.Link)
		w.WriteFixed(e.Submitter[:])
	}

	n := copy(dst, w.Bytes())
	clear(dst[n:])
	return nil
}

// Unmarshal decodes board account data.
func Unmarshal(data []byte) (*Board, error) {
	if len(data) < DiscriminatorSize {
		return nil, ErrAccountNotInitialized
	}
	var disc [DiscriminatorSize]byte
	copy(disc[:], data)
	if disc != AccountDiscriminator {
		if disc == ([DiscriminatorSize]byte{}) {
			return nil, ErrAccountNotInitialized
		}
		return nil, ErrAccountDiscriminatorMismatch
	}

	r := wire.NewReader(data[DiscriminatorSize:])
	total, err := r.ReadU64()
	if err != nil {
		return nil, deserializeError(err)
	}
	n, err := r.ReadLen(minEntrySize)
	if err != nil {
		return nil, deserializeError(err)
	}

	b := &Board{TotalEntries: total, Entries: make([]Entry, 0, n)}
	for i := 0; i < n; i++ {
		var e Entry
		if e.Link, err = r.ReadString(); err != nil {
			return nil, deserializeError(err)
		}
		if err := r.ReadFixed(e.Submitter[:]); err != nil {
			return nil, deserializeError(err)
		}
		b.Entries = append(b.Entries, e)
	}
	if b.TotalEntries != uint64(len(b.Entries)) {
		return nil, ErrAccountDidNotDeserialize.withDetail("entry count %d does not match %d stored entries", b.TotalEntries, len(b.Entries))
	}
	return b, nil
}
