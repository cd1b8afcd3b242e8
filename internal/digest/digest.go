// Package digest computes content digests for change detection and
// deduplication.
//
// Digests are SHA-256, hex encoded: deterministic and content-addressable,
// so identical bytes always yield the same digest and distinct bytes yield
// different digests with overwhelming probability.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Provider computes content digests. It is stateless and safe for
// concurrent use by all pipeline workers.
type Provider struct{}

// NewProvider creates a digest provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Sum returns the hex-encoded SHA-256 digest of the given content.
func (p *Provider) Sum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SumString returns the hex-encoded SHA-256 digest of a string.
func (p *Provider) SumString(content string) string {
	return p.Sum([]byte(content))
}

// Sum is a package-level convenience for one-off digests.
func Sum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SumString digests a string without an explicit provider.
func SumString(content string) string {
	return Sum([]byte(content))
}
