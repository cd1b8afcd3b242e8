package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumDeterministic(t *testing.T) {
	content := "func hello() {}"

	assert.Equal(t, SumString(content), SumString(content))
	assert.Equal(t, Sum([]byte(content)), SumString(content))
}

func TestSumDistinguishesContent(t *testing.T) {
	a := SumString("func hello() {}")
	b := SumString("func world() {}")

	assert.NotEqual(t, a, b)
}

func TestSumKnownVector(t *testing.T) {
	// SHA-256 of the empty string.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Sum(nil))
}

func TestSumHexEncoding(t *testing.T) {
	digest := SumString("package main")

	assert.Len(t, digest, 64)
	for _, r := range digest {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'),
			"unexpected digest character %q", r)
	}
}

func TestProviderMatchesPackageFunctions(t *testing.T) {
	p := NewProvider()

	assert.Equal(t, Sum([]byte("x")), p.Sum([]byte("x")))
	assert.Equal(t, SumString("y"), p.SumString("y"))
}
