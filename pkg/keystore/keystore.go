// Package keystore reads and writes keypair files.
//
// A keypair file is a small JSON document. Without a passphrase it holds the
// 64-byte Ed25519 secret in base58. With a passphrase the secret is sealed
// with NaCl secretbox under a key derived by Argon2id, and the file records
// the KDF parameters, salt and nonce needed to open it.
package keystore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const fileVersion = 1

// Argon2id parameters for newly sealed files.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	saltSize     = 16
	nonceSize    = 24
	keySize      = 32
)

var (
	// ErrPassphraseRequired is returned by Load for a sealed file when no
	// passphrase is given.
	ErrPassphraseRequired = errors.New("keypair file is sealed; passphrase required")

	// ErrWrongPassphrase is returned when a sealed file does not open.
	ErrWrongPassphrase = errors.New("wrong passphrase")

	// ErrCorrupt is returned for files that do not decode to a keypair.
	ErrCorrupt = errors.New("keypair file is corrupt")
)

type kdfParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
	Salt    string `json:"salt"`
}

type file struct {
	Version int             `json:"version"`
	Address address.Address `json:"address"`
	Secret  string          `json:"secret,omitempty"`
	KDF     *kdfParams      `json:"kdf,omitempty"`
	Nonce   string          `json:"nonce,omitempty"`
	Sealed  string          `json:"sealed,omitempty"`
}

// DefaultPath returns ~/.linkboard/id.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".linkboard", "id.json"), nil
}

// Save writes k to path, sealing it when passphrase is non-empty. The file is
// written to a temporary sibling and renamed into place with mode 0600.
func Save(path string, k *address.Keypair, passphrase string) error {
	f := file{Version: fileVersion, Address: k.Address()}
	if passphrase == "" {
		f.Secret = base58.Encode(k.Secret())
	} else {
		var salt [saltSize]byte
		var nonce [nonceSize]byte
		if _, err := rand.Read(salt[:]); err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
		if _, err := rand.Read(nonce[:]); err != nil {
			return fmt.Errorf("generate nonce: %w", err)
		}
		params := &kdfParams{Time: argonTime, Memory: argonMemory, Threads: argonThreads, Salt: base58.Encode(salt[:])}
		key := deriveKey(passphrase, salt[:], params)
		f.KDF = params
		f.Nonce = base58.Encode(nonce[:])
		f.Sealed = base58.Encode(secretbox.Seal(nil, k.Secret(), &nonce, &key))
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode keypair file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create keypair dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write keypair file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename keypair file: %w", err)
	}
	return nil
}

// Load reads the keypair at path. passphrase is ignored for plain files.
func Load(path, passphrase string) (*address.Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if f.Version != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, f.Version)
	}

	var secret []byte
	switch {
	case f.Secret != "":
		if secret, err = base58.Decode(f.Secret); err != nil {
			return nil, fmt.Errorf("%w: secret: %v", ErrCorrupt, err)
		}
	case f.Sealed != "":
		if passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		if secret, err = open(&f, passphrase); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: no secret", ErrCorrupt)
	}

	k, err := address.KeypairFromSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if k.Address() != f.Address {
		return nil, fmt.Errorf("%w: secret does not match address %s", ErrCorrupt, f.Address)
	}
	return k, nil
}

// IsSealed reports whether the file at path needs a passphrase.
func IsSealed(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return f.Sealed != "", nil
}

func open(f *file, passphrase string) ([]byte, error) {
	if f.KDF == nil {
		return nil, fmt.Errorf("%w: missing kdf parameters", ErrCorrupt)
	}
	salt, err := base58.Decode(f.KDF.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrCorrupt, err)
	}
	rawNonce, err := base58.Decode(f.Nonce)
	if err != nil || len(rawNonce) != nonceSize {
		return nil, fmt.Errorf("%w: nonce", ErrCorrupt)
	}
	sealed, err := base58.Decode(f.Sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: sealed: %v", ErrCorrupt, err)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], rawNonce)
	key := deriveKey(passphrase, salt, f.KDF)
	secret, ok := secretbox.Open(nil, sealed, &nonce, &key)
	if !ok {
		return nil, ErrWrongPassphrase
	}
	return secret, nil
}

func deriveKey(passphrase string, salt []byte, p *kdfParams) [keySize]byte {
	var key [keySize]byte
	copy(key[:], argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Threads, keySize))
	return key
}
