package passgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credvault/credvault/internal/common"
)

func TestGenerate_UpperOnly(t *testing.T) {
	got, err := Generate(16, Charsets{Upper: true})
	require.NoError(t, err)
	require.Len(t, got, 16)

	for _, c := range got {
		assert.True(t, c >= 'A' && c <= 'Z', "unexpected character %q", c)
	}
}

func TestGenerate_NoCharsetSelected(t *testing.T) {
	_, err := Generate(16, Charsets{})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestGenerate_NonPositiveLength(t *testing.T) {
	_, err := Generate(0, AllCharsets())
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = Generate(-3, AllCharsets())
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestGenerate_CombinedCharsets(t *testing.T) {
	got, err := Generate(64, Charsets{Lower: true, Digits: true})
	require.NoError(t, err)
	require.Len(t, got, 64)

	for _, c := range got {
		ok := (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
		assert.True(t, ok, "unexpected character %q", c)
	}
}

func TestGenerate_Varies(t *testing.T) {
	a, err := Generate(24, AllCharsets())
	require.NoError(t, err)
	b, err := Generate(24, AllCharsets())
	require.NoError(t, err)

	if a == b {
		t.Logf("warning: two generated passwords are identical; extremely unlikely")
	}
}

func TestStrength_Ordering(t *testing.T) {
	assert.Less(t, Strength("a"), Strength("Aa1!aaaaaaaa"))
}

func TestStrength_Bounds(t *testing.T) {
	for _, p := range []string{"", "a", "abcdefgh", "Aa1!", "Aa1!aaaaaaaa", strings.Repeat("Aa1!", 10)} {
		s := Strength(p)
		assert.GreaterOrEqual(t, s, 0, "password %q", p)
		assert.LessOrEqual(t, s, 4, "password %q", p)
	}
}

func TestStrength_Scores(t *testing.T) {
	tests := []struct {
		password string
		want     int
	}{
		{"", 0},
		{"a", 1},
		{"abcdefgh", 2},       // length>=8 + lowercase
		{"Aa1!", 4},           // all four classes, short
		{"Aa1!aaaaaaaa", 4},   // capped
		{"aaaaaaaaaaaa", 3},   // two length points + lowercase
		{"999999999999", 3},   // two length points + digits
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Strength(tt.password), "password %q", tt.password)
	}
}
