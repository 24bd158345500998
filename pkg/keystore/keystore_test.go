package keystore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmerrifield20/linkboard/pkg/address"
)

func newKeypair(t *testing.T) *address.Keypair {
	t.Helper()
	k, err := address.NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func TestSaveLoad_plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "id.json")
	k := newKeypair(t)

	if err := Save(path, k, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path, "ignored")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Address() != k.Address() {
		t.Errorf("address: got %s, want %s", got.Address(), k.Address())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode: got %o, want 600", perm)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestSaveLoad_sealed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")
	k := newKeypair(t)

	if err := Save(path, k, "correct horse"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), `"secret"`) {
		t.Error("sealed file contains a plain secret")
	}
	if sealed, err := IsSealed(path); err != nil || !sealed {
		t.Errorf("IsSealed: %v, %v", sealed, err)
	}

	if _, err := Load(path, ""); !errors.Is(err, ErrPassphraseRequired) {
		t.Errorf("no passphrase: got %v, want ErrPassphraseRequired", err)
	}
	if _, err := Load(path, "wrong"); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("wrong passphrase: got %v, want ErrWrongPassphrase", err)
	}
	got, err := Load(path, "correct horse")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	msg := []byte("sign me")
	if !address.Verify(k.Address(), msg, got.Sign(msg)) {
		t.Error("loaded keypair does not sign for the saved address")
	}
}

func TestLoad_addressMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")
	k, other := newKeypair(t), newKeypair(t)
	if err := Save(path, k, ""); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	data = []byte(strings.Replace(string(data), k.Address().String(), other.Address().String(), 1))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, ""); !errors.Is(err, ErrCorrupt) {
		t.Errorf("got %v, want ErrCorrupt", err)
	}
}

func TestLoad_corrupt(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"not json":    "{",
		"bad version": `{"version": 9}`,
		"no secret":   `{"version": 1, "address": "11111111111111111111111111111111"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".json")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path, ""); !errors.Is(err, ErrCorrupt) {
				t.Errorf("got %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"), "")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want os.ErrNotExist", err)
	}
}
