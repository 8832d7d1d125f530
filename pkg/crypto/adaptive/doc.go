// Package adaptive seals stored values with an AEAD cipher chosen for
// the host CPU.
//
// AES-256-GCM is used where Go has hardware AES (amd64, arm64) and
// ChaCha20-Poly1305 elsewhere. Sealed output is
//
//	tag(1) | nonce | ciphertext+mac
//
// where tag names the cipher, so a value sealed by one cipher is
// rejected with ErrCipherMismatch by the other instead of failing
// authentication.
//
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plaintext, err := c.Decrypt(sealed, aad)
package adaptive
