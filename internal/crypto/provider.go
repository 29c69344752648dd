package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Errors
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRandomSource         = errors.New("random source failed")
)

// Provider defines the interface for cryptographic operations.
type Provider interface {
	// Encrypt seals plaintext under a key derived from password and a
	// fresh salt, using a fresh nonce.
	Encrypt(password, plaintext []byte) (*Sealed, error)

	// Decrypt re-derives the key from the sealed salt and opens the
	// ciphertext.
	Decrypt(password []byte, sealed *Sealed) ([]byte, error)
}

// Sealed is the cryptographic material stored in a container.
type Sealed struct {
	Salt       Salt
	Nonce      Nonce
	Ciphertext []byte
}

// CryptoProvider handles all cryptographic operations.
type CryptoProvider struct {
	random io.Reader
}

// NewProvider creates a crypto provider backed by crypto/rand.
func NewProvider() *CryptoProvider {
	return NewProviderWithRandom(rand.Reader)
}

// NewProviderWithRandom creates a provider drawing salts and nonces from r.
func NewProviderWithRandom(r io.Reader) *CryptoProvider {
	return &CryptoProvider{random: r}
}

// NewSalt returns a random salt.
func (p *CryptoProvider) NewSalt() (Salt, error) {
	var salt Salt
	if _, err := io.ReadFull(p.random, salt[:]); err != nil {
		return salt, fmt.Errorf("%w: generate salt: %v", ErrRandomSource, err)
	}
	return salt, nil
}

// NewNonce returns a random nonce.
func (p *CryptoProvider) NewNonce() (Nonce, error) {
	var nonce Nonce
	if _, err := io.ReadFull(p.random, nonce[:]); err != nil {
		return nonce, fmt.Errorf("%w: generate nonce: %v", ErrRandomSource, err)
	}
	return nonce, nil
}

// Encrypt implements Provider.
func (p *CryptoProvider) Encrypt(password, plaintext []byte) (*Sealed, error) {
	salt, err := p.NewSalt()
	if err != nil {
		return nil, err
	}

	nonce, err := p.NewNonce()
	if err != nil {
		return nil, err
	}

	key := DeriveKey(password, salt)
	defer key.Wipe()

	ciphertext, err := Seal(&key, nonce, plaintext)
	if err != nil {
		return nil, err
	}

	return &Sealed{Salt: salt, Nonce: nonce, Ciphertext: ciphertext}, nil
}

// Decrypt implements Provider.
func (p *CryptoProvider) Decrypt(password []byte, sealed *Sealed) ([]byte, error) {
	if sealed == nil {
		return nil, ErrAuthenticationFailed
	}

	key := DeriveKey(password, sealed.Salt)
	defer key.Wipe()

	return Open(&key, sealed.Nonce, sealed.Ciphertext)
}
