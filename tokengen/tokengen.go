// Package tokengen produces the random prefixes that make upload keys
// unguessable and collision free. Generators are safe for concurrent use.
package tokengen

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// DefaultBytes is the entropy of an upload key prefix.
const DefaultBytes = 32

// Generator returns a fresh token carrying n random bytes.
type Generator interface {
	Generate(n int) (string, error)
}

// urlSafeGenerator encodes random bytes with unpadded URL-safe base64, so the
// token can sit in a URL path segment or an object key without escaping.
type urlSafeGenerator struct{}

// NewURLSafe returns a Generator backed by crypto/rand.
func NewURLSafe() Generator {
	return urlSafeGenerator{}
}

func (urlSafeGenerator) Generate(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("byte count must be positive")
	}

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// EncodedLen is the length of a token generated from n bytes.
func EncodedLen(n int) int {
	return base64.RawURLEncoding.EncodedLen(n)
}
