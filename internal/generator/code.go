// Package generator produces short codes for new mappings.
package generator

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// CodeLength is the length of every generated code.
const CodeLength = 8

// HashGenerator derives codes from a random UUID reduced to a 32-bit hash.
// Codes are not unique by construction; the store rejects collisions.
type HashGenerator struct {
	source func() (uuid.UUID, error)
}

// Option configures a HashGenerator.
type Option func(*HashGenerator)

// WithSource replaces the random UUID source.
func WithSource(source func() (uuid.UUID, error)) Option {
	return func(g *HashGenerator) {
		g.source = source
	}
}

// NewHashGenerator returns a generator backed by random (version 4) UUIDs.
func NewHashGenerator(opts ...Option) *HashGenerator {
	g := &HashGenerator{source: uuid.NewRandom}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns eight upper-case hex digits, e.g. "3FA9C01B".
func (g *HashGenerator) Generate() (string, error) {
	id, err := g.source()
	if err != nil {
		return "", fmt.Errorf("failed to read random source: %w", err)
	}

	return Encode(id), nil
}

// Encode folds the 64-bit xxhash of id into 32 bits and renders it as hex.
func Encode(id uuid.UUID) string {
	h := xxhash.Sum64(id[:])
	return fmt.Sprintf("%08X", uint32(h^(h>>32)))
}
