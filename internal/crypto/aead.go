package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

const (
	NonceSize = 12 // GCM standard
	TagSize   = 16 // GCM tag
)

// Nonce is the per-container GCM nonce.
type Nonce [NonceSize]byte

func newGCM(key *Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return aead, nil
}

// Seal encrypts plaintext with AES-256-GCM and no associated data.
// Returns: ciphertext || tag
func Seal(key *Key, nonce Nonce, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	return aead.Seal(nil, nonce[:], plaintext, nil), nil
}

// Open authenticates and decrypts ciphertext || tag. Every failure,
// whatever its cause, is reported as ErrAuthenticationFailed.
func Open(key *Key, nonce Nonce, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < TagSize {
		return nil, ErrAuthenticationFailed
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return plaintext, nil
}
