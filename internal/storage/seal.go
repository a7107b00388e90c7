package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/mobsession-go/pkg/crypto/adaptive"
)

// Sealing errors.
var (
	ErrPassphraseTooWeak = errors.New("storage: passphrase too weak (minimum 8 characters)")
	ErrUnsealFailed      = errors.New("storage: unseal failed - wrong passphrase or corrupted data")
)

const (
	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the salt length used in key derivation.
	SaltLength = 16

	sealMagic = "MSS1"

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32

	sealKeyInfo = "mobsession cookie store v1"
)

// sealer encrypts whole documents with a key derived from a passphrase.
// Layout: magic | cipher type length | cipher type | salt | ciphertext.
type sealer struct {
	passphrase []byte
}

func newSealer(passphrase []byte) (*sealer, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	return &sealer{passphrase: passphrase}, nil
}

// deriveKey stretches the passphrase with Argon2id and binds it to this
// use with HKDF.
func (s *sealer) deriveKey(salt []byte) ([]byte, error) {
	master := argon2.IDKey(s.passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, salt, []byte(sealKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("storage: derive key: %w", err)
	}
	return key, nil
}

func (s *sealer) Seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("storage: generate salt: %w", err)
	}
	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}
	c, err := adaptive.New(key)
	if err != nil {
		return nil, err
	}

	header := []byte(sealMagic)
	header = append(header, byte(len(c.Type())))
	header = append(header, string(c.Type())...)
	header = append(header, salt...)

	ct, err := c.Seal(plaintext, header)
	if err != nil {
		return nil, err
	}
	return append(header, ct...), nil
}

func (s *sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < len(sealMagic)+1 || string(sealed[:len(sealMagic)]) != sealMagic {
		return nil, ErrUnsealFailed
	}
	off := len(sealMagic)
	typeLen := int(sealed[off])
	off++
	if len(sealed) < off+typeLen+SaltLength {
		return nil, ErrUnsealFailed
	}
	cipherType := adaptive.CipherType(sealed[off : off+typeLen])
	off += typeLen
	salt := sealed[off : off+SaltLength]
	off += SaltLength

	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}
	c, err := adaptive.NewWithType(key, cipherType)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	plaintext, err := c.Open(sealed[off:], sealed[:off])
	if err != nil {
		return nil, ErrUnsealFailed
	}
	return plaintext, nil
}

// IsSealed reports whether data carries the sealed document header.
func IsSealed(data []byte) bool {
	return len(data) >= len(sealMagic) && string(data[:len(sealMagic)]) == sealMagic
}
