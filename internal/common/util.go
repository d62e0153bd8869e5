package common

import (
	"crypto/rand"
)

// GenerateRandByteArray returns size cryptographically secure random bytes.
// It panics if the system randomness source fails, which is not recoverable
// for a program whose security rests on fresh salts and nonces.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// This is used to remove master passwords and derived keys from memory after
// use. If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
