// Package common defines shared constants and sentinel errors used across
// all layers of the vault. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorStorage  = errors.New("storage error")

	// ErrorConflict is returned when a concurrent writer persisted the vault
	// between our read and our write. The caller should re-read and retry.
	ErrorConflict = errors.New("vault modified concurrently")

	// ErrorDecryption is the unified failure for a wrong master password and
	// for corrupted or truncated ciphertext. The causes are deliberately
	// indistinguishable to the caller.
	ErrorDecryption = errors.New("incorrect password or corrupted data")

	// Validation errors (empty vault name, no charset selected, ...).
	ErrorValidation = errors.New("validation error")

	// ErrorInvalidFormat is returned for malformed backup files.
	ErrorInvalidFormat = errors.New("invalid format")
)
