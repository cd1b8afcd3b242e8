package digest

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDigestProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234) // For reproducible results
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("equal content yields equal digests", prop.ForAll(
		func(content string) bool {
			return SumString(content) == SumString(content)
		},
		gen.AnyString(),
	))

	properties.Property("distinct content yields distinct digests", prop.ForAll(
		func(a, b string) bool {
			if a == b {
				return SumString(a) == SumString(b)
			}
			return SumString(a) != SumString(b)
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("digest is always 64 hex characters", prop.ForAll(
		func(content []byte) bool {
			digest := Sum(content)
			if len(digest) != 64 {
				return false
			}
			for _, r := range digest {
				if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
