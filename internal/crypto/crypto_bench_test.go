package crypto_test

import (
	"crypto/rand"
	"testing"

	"github.com/TheMichaelB/togglecrypt/internal/crypto"
)

func BenchmarkDeriveKey(b *testing.B) {
	var salt crypto.Salt
	if _, err := rand.Read(salt[:]); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := crypto.DeriveKey([]byte("password123"), salt)
		key.Wipe()
	}
}

func BenchmarkSeal(b *testing.B) {
	var key crypto.Key
	var nonce crypto.Nonce
	plaintext := make([]byte, 1024) // 1KB

	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := crypto.Seal(&key, nonce, plaintext); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOpen(b *testing.B) {
	var key crypto.Key
	var nonce crypto.Nonce
	plaintext := make([]byte, 1024)

	ciphertext, err := crypto.Seal(&key, nonce, plaintext)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := crypto.Open(&key, nonce, ciphertext); err != nil {
			b.Fatal(err)
		}
	}
}
