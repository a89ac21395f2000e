package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const defaultSize = 12

// Generator creates opaque IDs used to correlate requests across logs.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct {
	prefix string
	size   int
}

// NewRandomGenerator returns a generator of prefix + hex(size random bytes).
func NewRandomGenerator(prefix string, size int) *RandomGenerator {
	if size <= 0 {
		size = defaultSize
	}
	return &RandomGenerator{prefix: strings.TrimSpace(prefix), size: size}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, g.size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return g.prefix + hex.EncodeToString(buf), nil
}

// Valid reports whether an externally supplied ID is safe to echo back and log.
func Valid(raw string, maxLen int) bool {
	if raw == "" || len(raw) > maxLen {
		return false
	}
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
