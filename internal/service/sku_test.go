package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSKUGeneratorProducesAlphabetCharacters(t *testing.T) {
	g := NewSKUGenerator(DefaultSKULength, DefaultSKUMaxAttempts)
	pattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	for i := 0; i < 200; i++ {
		sku, err := g.Generate(func(string) bool { return false })
		require.NoError(t, err)
		assert.Regexp(t, pattern, sku)
	}
}

func TestSKUGeneratorRedrawsOnCollision(t *testing.T) {
	draws := []int{0, 0, 1, 1}
	g := &SKUGenerator{
		Length:      2,
		Alphabet:    "AB",
		MaxAttempts: 5,
		IntN: func(int) int {
			v := draws[0]
			draws = draws[1:]
			return v
		},
	}

	sku, err := g.Generate(func(s string) bool { return s == "AA" })
	require.NoError(t, err)
	assert.Equal(t, "BB", sku)
}

func TestSKUGeneratorExhausted(t *testing.T) {
	attempts := 0
	g := &SKUGenerator{Length: 1, Alphabet: "A", MaxAttempts: 25, IntN: func(int) int { return 0 }}

	_, err := g.Generate(func(string) bool {
		attempts++
		return true
	})
	assert.ErrorIs(t, err, ErrGenerationExhausted)
	assert.Equal(t, 25, attempts)
}
