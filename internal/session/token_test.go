package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenGenerator_Generate(t *testing.T) {
	generator := NewTokenGenerator(16)

	token := generator.Generate()
	assert.Len(t, token, 16)

	for _, char := range token {
		assert.True(t, strings.ContainsRune(base62Chars, char),
			"token contains invalid character: %q", char)
	}
}

func TestTokenGenerator_Uniqueness(t *testing.T) {
	generator := NewTokenGenerator(16)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := generator.Generate()
		assert.False(t, seen[token], "duplicate token generated: %s", token)
		seen[token] = true
	}
}

func TestTokenGenerator_ClampsLength(t *testing.T) {
	assert.Len(t, NewTokenGenerator(2).Generate(), 16)
	assert.Len(t, NewTokenGenerator(200).Generate(), 64)
	assert.Len(t, NewTokenGenerator(32).Generate(), 32)
}

func TestTokenGenerator_IsValid(t *testing.T) {
	generator := NewTokenGenerator(16)

	assert.True(t, generator.IsValid(generator.Generate()))

	assert.False(t, generator.IsValid(""))
	assert.False(t, generator.IsValid("short"))
	assert.False(t, generator.IsValid("abcdefgh12345678x")) // too long
	assert.False(t, generator.IsValid("abcdefgh1234567$")) // bad character
}
