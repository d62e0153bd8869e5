// Package passgen provides the password generator and strength estimator
// consumed by the presentation layer. Both functions are pure.
package passgen

import (
	"strings"

	"github.com/credvault/credvault/internal/common"
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{};:,.<>?/"
)

// Charsets selects which character classes participate in generation.
type Charsets struct {
	Upper   bool
	Lower   bool
	Digits  bool
	Symbols bool
}

// AllCharsets returns a selection with every class enabled.
func AllCharsets() Charsets {
	return Charsets{Upper: true, Lower: true, Digits: true, Symbols: true}
}

// Generate returns a random password of the given length drawn from the
// selected character classes, one cryptographically random byte per output
// character, reduced modulo the combined charset size. The slight modulo
// bias toward earlier characters when the charset length does not divide
// 256 is accepted as negligible here.
//
// Fails with common.ErrorValidation when length is not positive or no
// class is selected.
func Generate(length int, cs Charsets) (string, error) {
	if length <= 0 {
		return "", common.ErrorValidation
	}

	var charset string
	if cs.Upper {
		charset += upperChars
	}
	if cs.Lower {
		charset += lowerChars
	}
	if cs.Digits {
		charset += digitChars
	}
	if cs.Symbols {
		charset += symbolChars
	}
	if charset == "" {
		return "", common.ErrorValidation
	}

	random := common.GenerateRandByteArray(length)

	var b strings.Builder
	b.Grow(length)
	for _, r := range random {
		b.WriteByte(charset[int(r)%len(charset)])
	}
	return b.String(), nil
}

// Strength scores a password from 0 (weakest) to 4 (strongest): one point
// each for length >= 8, length >= 12, and the presence of each of the four
// character classes, capped at 4.
func Strength(password string) int {
	score := 0
	if len(password) >= 8 {
		score++
	}
	if len(password) >= 12 {
		score++
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	for _, ok := range []bool{hasUpper, hasLower, hasDigit, hasSymbol} {
		if ok {
			score++
		}
	}

	if score > 4 {
		score = 4
	}
	return score
}
