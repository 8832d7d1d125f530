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

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// KeySize is the only accepted key length.
const KeySize = 32

var (
	ErrKeySize        = fmt.Errorf("adaptive: key must be %d bytes", KeySize)
	ErrUnknownCipher  = errors.New("adaptive: unknown cipher type")
	ErrTooShort       = errors.New("adaptive: sealed value too short")
	ErrCipherMismatch = errors.New("adaptive: value sealed with a different cipher")
)

// Cipher provides authenticated encryption.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt seals plaintext, binding additionalData.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt opens a value produced by Encrypt with the same additionalData.
	Decrypt(sealed, additionalData []byte) ([]byte, error)

	// Overhead is the number of bytes Encrypt adds to the plaintext.
	Overhead() int
}

var tags = map[CipherType]byte{
	CipherAESGCM:   1,
	CipherChaCha20: 2,
}

// ParseCipherType validates a configured cipher name. Empty means
// "pick by hardware" and is returned as "".
func ParseCipherType(s string) (CipherType, error) {
	t := CipherType(s)
	if t == "" {
		return "", nil
	}
	if _, ok := tags[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCipher, s)
	}
	return t, nil
}

// Preferred returns the cipher New would pick on this machine.
func Preferred() CipherType {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return CipherAESGCM
	default:
		return CipherChaCha20
	}
}

// New creates a cipher of the Preferred type.
func New(key []byte) (Cipher, error) {
	return NewWithType(key, Preferred())
}

// NewWithType creates a cipher of the given type.
func NewWithType(key []byte, t CipherType) (Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	var (
		a   cipher.AEAD
		err error
	)
	switch t {
	case CipherAESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key); err == nil {
			a, err = cipher.NewGCM(block)
		}
	case CipherChaCha20:
		a, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, t)
	}
	if err != nil {
		return nil, err
	}
	return &aead{typ: t, tag: tags[t], aead: a}, nil
}

type aead struct {
	typ  CipherType
	tag  byte
	aead cipher.AEAD
}

func (c *aead) Type() CipherType { return c.typ }

func (c *aead) Overhead() int {
	return 1 + c.aead.NonceSize() + c.aead.Overhead()
}

func (c *aead) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	out := make([]byte, 1+ns, 1+ns+len(plaintext)+c.aead.Overhead())
	out[0] = c.tag
	if _, err := rand.Read(out[1:]); err != nil {
		return nil, err
	}
	return c.aead.Seal(out, out[1:], plaintext, additionalData), nil
}

func (c *aead) Decrypt(sealed, additionalData []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < 1+ns+c.aead.Overhead() {
		return nil, ErrTooShort
	}
	if sealed[0] != c.tag {
		return nil, ErrCipherMismatch
	}
	return c.aead.Open(nil, sealed[1:1+ns], sealed[1+ns:], additionalData)
}
