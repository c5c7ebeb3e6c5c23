package tokenstore

import (
	"crypto/cipher"
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of the vault key in bytes.
const KeySize = chacha20poly1305.KeySize

// sealer encrypts records with XChaCha20-Poly1305. The slot name is bound
// as additional data so a record cannot be replayed under another slot.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(key []byte) (*sealer, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Wrap(err, "vault key")
	}
	return &sealer{aead: aead}, nil
}

func (s *sealer) seal(slot string, plain []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	out := make([]byte, nonceSize, nonceSize+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, errors.Wrap(err, "generate nonce")
	}
	return s.aead.Seal(out, out, plain, []byte(slot)), nil
}

func (s *sealer) open(slot string, sealed []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize+s.aead.Overhead() {
		return nil, errors.New("record too short")
	}
	plain, err := s.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], []byte(slot))
	if err != nil {
		return nil, errors.Wrap(err, "decrypt record")
	}
	return plain, nil
}

// LoadOrCreateKey reads the vault key at path, generating a new random key
// (file mode 0600) when none exists. The key is written to a temporary file
// and linked into place, so path never holds a partially written key.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := readKey(path)
	if err == nil || !os.IsNotExist(err) {
		return key, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "create vault dir")
	}
	key = make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrap(err, "generate vault key")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return nil, errors.Wrap(err, "write vault key")
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return nil, errors.Wrap(err, "write vault key")
	}
	if _, err := tmp.Write(key); err != nil {
		tmp.Close()
		return nil, errors.Wrap(err, "write vault key")
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(err, "write vault key")
	}

	if err := os.Link(tmp.Name(), path); err != nil {
		if os.IsExist(err) {
			// Another process won the race; use its key.
			return readKey(path)
		}
		return nil, errors.Wrap(err, "write vault key")
	}
	return key, nil
}

func readKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "read vault key")
	}
	if len(key) != KeySize {
		return nil, errors.Errorf("vault key %s: want %d bytes, got %d", path, KeySize, len(key))
	}
	return key, nil
}
