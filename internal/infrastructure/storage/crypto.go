package storage

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

// scrypt cost parameters; tests lower scryptN.
var scryptN = 1 << 15

var (
	// ErrLocked means the file is encrypted and no passphrase was configured.
	ErrLocked = errors.New("storage file is encrypted; STORAGE_PASSPHRASE is required")
	// ErrDecrypt means the passphrase does not match the file.
	ErrDecrypt = errors.New("storage file could not be decrypted")
)

// sealer encrypts the file body with a key derived from the passphrase.
type sealer struct {
	salt []byte
	key  [keySize]byte
}

func newSealer(passphrase string, salt []byte) (*sealer, error) {
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
	}
	dk, err := scrypt.Key([]byte(passphrase), salt, scryptN, 8, 1, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	s := &sealer{salt: salt}
	copy(s.key[:], dk)
	return s, nil
}

func (s *sealer) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

func (s *sealer) open(box []byte) ([]byte, error) {
	if len(box) < nonceSize+secretbox.Overhead {
		return nil, ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plain, nil
}
