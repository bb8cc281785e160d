package service

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// SKUAlphabet is the default character set for generated SKUs
const SKUAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	DefaultSKULength      = 6
	DefaultSKUMaxAttempts = 10000
)

// SKUGenerator draws fixed-length SKUs uniformly from an alphabet, redrawing on collision.
type SKUGenerator struct {
	Length      int
	Alphabet    string
	MaxAttempts int
	// IntN returns a uniform int in [0, n). Defaults to math/rand/v2.
	IntN func(n int) int
}

func NewSKUGenerator(length, maxAttempts int) *SKUGenerator {
	return &SKUGenerator{
		Length:      length,
		Alphabet:    SKUAlphabet,
		MaxAttempts: maxAttempts,
		IntN:        rand.IntN,
	}
}

// Generate returns a SKU for which taken reports false.
func (g *SKUGenerator) Generate(taken func(sku string) bool) (string, error) {
	length, alphabet, attempts := g.Length, g.Alphabet, g.MaxAttempts
	if length <= 0 {
		length = DefaultSKULength
	}
	if alphabet == "" {
		alphabet = SKUAlphabet
	}
	if attempts <= 0 {
		attempts = DefaultSKUMaxAttempts
	}
	intN := g.IntN
	if intN == nil {
		intN = rand.IntN
	}

	var b strings.Builder
	for i := 0; i < attempts; i++ {
		b.Reset()
		for j := 0; j < length; j++ {
			b.WriteByte(alphabet[intN(len(alphabet))])
		}
		if candidate := b.String(); !taken(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, attempts)
}
