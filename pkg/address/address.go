// Package address provides the 32-byte account address used throughout
// linkboard and the Ed25519 keypairs that sign for them.
//
// Addresses are rendered in base58:
//
//	11111111111111111111111111111111               (system program)
//	9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin   (a user key)
//
// The address of a keypair is its Ed25519 public key. Program addresses are
// derived from seeds and have no corresponding private key.
package address

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// Size is the length of an address in bytes.
const Size = 32

// Address identifies an account.
type Address [Size]byte

// Zero is the all-zero address.
var Zero Address

// SystemProgram is the address of the system program, which owns every
// account no other program has claimed. It is the zero address.
var SystemProgram = Zero

// Parse decodes a base58 address string.
func Parse(s string) (Address, error) {
	var a Address
	if s == "" {
		return a, fmt.Errorf("empty address")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(raw) != Size {
		return a, fmt.Errorf("invalid address %q: decoded to %d bytes, want %d", s, len(raw), Size)
	}
	copy(a[:], raw)
	return a, nil
}

// MustParse is like Parse but panics on error. Useful for well-known constants.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromBytes copies a 32-byte slice into an Address.
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return a, fmt.Errorf("address must be %d bytes, got %d", Size, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Derive returns a deterministic address from the given seeds.
// Derived addresses are used as program identifiers.
func Derive(seeds ...[]byte) Address {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write([]byte("linkboard-derived-address"))
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

// String returns the base58 form of the address.
func (a Address) String() string { return base58.Encode(a[:]) }

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool { return a == Zero }

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, a[:])
	return b
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
