package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the AEAD algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// KeySize is the key length accepted by every cipher type.
const KeySize = 32

var (
	ErrInvalidKeySize     = errors.New("adaptive: key must be 32 bytes")
	ErrUnknownCipher      = errors.New("adaptive: unknown cipher type")
	ErrCiphertextTooShort = errors.New("adaptive: ciphertext too short")
)

// Cipher seals and opens values with one AEAD.
type Cipher struct {
	typ  CipherType
	aead cipher.AEAD
}

// New returns the preferred cipher for this architecture.
func New(key []byte) (*Cipher, error) {
	return NewWithType(key, Preferred())
}

// Preferred returns AES-GCM on architectures where Go uses hardware AES,
// ChaCha20-Poly1305 otherwise.
func Preferred() CipherType {
	switch runtime.GOARCH {
	case "amd64", "arm64", "s390x", "ppc64le":
		return CipherAESGCM
	default:
		return CipherChaCha20
	}
}

// NewWithType returns a cipher of type t. Open must use the type Seal used.
func NewWithType(key []byte, t CipherType) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch t {
	case CipherAESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key); err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case CipherChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, t)
	}
	if err != nil {
		return nil, err
	}
	return &Cipher{typ: t, aead: aead}, nil
}

// Type returns the algorithm of c.
func (c *Cipher) Type() CipherType { return c.typ }

// Overhead is the number of bytes Seal adds: nonce plus tag.
func (c *Cipher) Overhead() int {
	return c.aead.NonceSize() + c.aead.Overhead()
}

// Seal encrypts plaintext and authenticates it together with ad.
func (c *Cipher) Seal(plaintext, ad []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, ad), nil
}

// Open reverses Seal. It fails when sealed or ad was modified.
func (c *Cipher) Open(sealed, ad []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(sealed) < n+c.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	return c.aead.Open(nil, sealed[:n], sealed[n:], ad)
}
