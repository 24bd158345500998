package address

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// SignatureSize is the length of an Ed25519 signature in bytes.
const SignatureSize = ed25519.SignatureSize

// Signature is an Ed25519 signature over a transaction message.
type Signature [SignatureSize]byte

// ParseSignature decodes a base58 signature string.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	raw, err := base58.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("invalid signature: %w", err)
	}
	if len(raw) != SignatureSize {
		return sig, fmt.Errorf("invalid signature: decoded to %d bytes, want %d", len(raw), SignatureSize)
	}
	copy(sig[:], raw)
	return sig, nil
}

// String returns the base58 form of the signature.
func (s Signature) String() string { return base58.Encode(s[:]) }

// IsZero reports whether no signature has been set.
func (s Signature) IsZero() bool { return s == Signature{} }

// MarshalText implements encoding.TextMarshaler.
func (s Signature) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Verify reports whether sig is a valid signature of msg by the key at addr.
func Verify(addr Address, msg []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(addr[:]), msg, sig[:])
}

// Keypair is an Ed25519 signing key together with its address.
type Keypair struct {
	priv ed25519.PrivateKey
	addr Address
}

// NewKeypair generates a fresh random keypair.
func NewKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return fromPrivate(priv), nil
}

// KeypairFromSeed derives a keypair from a 32-byte seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return fromPrivate(ed25519.NewKeyFromSeed(seed)), nil
}

// KeypairFromSecret restores a keypair from its 64-byte secret key
// (seed followed by public key).
func KeypairFromSecret(secret []byte) (*Keypair, error) {
	if len(secret) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", ed25519.PrivateKeySize, len(secret))
	}
	kp, err := KeypairFromSeed(secret[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	if string(kp.priv[ed25519.SeedSize:]) != string(secret[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("secret key public half does not match its seed")
	}
	return kp, nil
}

func fromPrivate(priv ed25519.PrivateKey) *Keypair {
	kp := &Keypair{priv: priv}
	copy(kp.addr[:], priv.Public().(ed25519.PublicKey))
	return kp
}

// Address returns the keypair's public address.
func (k *Keypair) Address() Address { return k.addr }

// Sign signs msg.
func (k *Keypair) Sign(msg []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(k.priv, msg))
	return sig
}

// Secret returns a copy of the 64-byte secret key.
func (k *Keypair) Secret() []byte {
	out := make([]byte, len(k.priv))
	copy(out, k.priv)
	return out
}
