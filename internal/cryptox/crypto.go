// Package cryptox implements the two cryptographic primitives the vault is
// built on: password-based key derivation and authenticated encryption of
// the serialized vault plaintext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"

	"golang.org/x/crypto/pbkdf2"

	"github.com/credvault/credvault/internal/common"
)

const (
	// KeyIterations is a protocol parameter: it is fixed for all vaults
	// forever. Changing it would make every existing vault unopenable,
	// because the same (password, salt) pair must keep producing the
	// same key.
	KeyIterations = 100_000

	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// SaltSize is the per-vault salt length in bytes.
	SaltSize = 16

	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12
)

// DeriveKey derives the vault's symmetric key from a master password and a
// salt using PBKDF2-HMAC-SHA256. Deterministic given (password, salt):
// a vault opened later with the same password reproduces the same key.
// The iteration cost is intentional friction against brute force, so this
// must not be called on a latency-sensitive path.
func DeriveKey(password []byte, salt []byte) []byte {
	return pbkdf2.Key(password, salt, KeyIterations, KeySize, sha256.New)
}

// GenerateSalt returns a fresh random salt of SaltSize bytes.
func GenerateSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// Encrypt serializes v to JSON and encrypts it using AES-256-GCM under key.
// A new random 12-byte nonce is generated for each call; the ciphertext
// (which includes the GCM authentication tag) and the nonce are returned
// separately.
func Encrypt(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(NonceSize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt decrypts ciphertext with AES-256-GCM and unmarshals the resulting
// JSON into v, which must be a pointer.
//
// Every lower-level failure (wrong key, failed tag check, truncated or
// corrupted bytes, garbage plaintext) is collapsed into the single
// common.ErrorDecryption value before it reaches the caller, so a wrong
// password and corrupted data are indistinguishable.
func Decrypt(ciphertext, nonce, key []byte, v any) error {
	// GCM panics on a nonce of the wrong length instead of returning an
	// error, so a truncated nonce must be rejected before Open.
	if len(nonce) != NonceSize {
		return common.ErrorDecryption
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return common.ErrorDecryption
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return common.ErrorDecryption
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return common.ErrorDecryption
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return common.ErrorDecryption
	}
	return nil
}
