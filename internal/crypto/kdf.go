package crypto

import (
	"github.com/awnumar/memguard"
	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 16
	KeySize  = 32 // AES-256

	// Argon2id parameters. They are not recorded in the container, so
	// changing them makes existing containers fail authentication.
	ArgonTime    uint32 = 3
	ArgonMemory  uint32 = 64 * 1024 // KiB
	ArgonThreads uint8  = 1
)

// Salt is the per-container key derivation salt.
type Salt [SaltSize]byte

// Key is a derived AES-256 key. It only lives for one cipher operation.
type Key [KeySize]byte

// DeriveKey stretches a password into a key with Argon2id.
func DeriveKey(password []byte, salt Salt) Key {
	raw := argon2.IDKey(password, salt[:], ArgonTime, ArgonMemory, ArgonThreads, KeySize)
	defer memguard.WipeBytes(raw)

	var key Key
	copy(key[:], raw)
	return key
}

// Wipe zeroes the key in place.
func (k *Key) Wipe() {
	memguard.WipeBytes(k[:])
}
