package storage

import (
	"context"
	"fmt"

	"github.com/Saiguru2554/Health-Link-Qr/pkg/crypto/adaptive"
)

// SealedKV encrypts values before they reach the wrapped KV.
//
// The key is bound as additional data, so a ciphertext copied to another
// key fails to open. Keys themselves are stored in the clear.
type SealedKV struct {
	inner  KV
	cipher adaptive.Cipher
}

// NewSealedKV wraps inner with the given cipher.
func NewSealedKV(inner KV, c adaptive.Cipher) *SealedKV {
	return &SealedKV{inner: inner, cipher: c}
}

// Get retrieves and decrypts a value.
func (s *SealedKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	sealed, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	plain, err := s.cipher.Decrypt(sealed, []byte(key))
	if err != nil {
		return nil, false, fmt.Errorf("sealed: open %q: %w", key, err)
	}
	return plain, true, nil
}

// Set encrypts and stores a value.
func (s *SealedKV) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, sealed)
}

// SetIfAbsent encrypts and stores a value when the key is unused.
func (s *SealedKV) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	sealed, err := s.seal(key, value)
	if err != nil {
		return false, err
	}
	return s.inner.SetIfAbsent(ctx, key, sealed)
}

// Delete removes a key.
func (s *SealedKV) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// Scan decrypts each value before handing it to fn. A value that fails to
// open aborts the scan with an error.
func (s *SealedKV) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) bool) error {
	var openErr error
	err := s.inner.Scan(ctx, prefix, func(key string, sealed []byte) bool {
		plain, err := s.cipher.Decrypt(sealed, []byte(key))
		if err != nil {
			openErr = fmt.Errorf("sealed: open %q: %w", key, err)
			return false
		}
		return fn(key, plain)
	})
	if err != nil {
		return err
	}
	return openErr
}

// Close closes the wrapped KV.
func (s *SealedKV) Close() error {
	return s.inner.Close()
}

func (s *SealedKV) seal(key string, value []byte) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	sealed, err := s.cipher.Encrypt(value, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("sealed: seal %q: %w", key, err)
	}
	return sealed, nil
}

var _ KV = (*SealedKV)(nil)
