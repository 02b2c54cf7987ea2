// Package random supplies unpredictable identifier strings for prediction
// seeds and trade IDs. The core only needs a source of hex-bearing strings,
// not any particular cryptographic guarantee.
package random

import "github.com/google/uuid"

// SeedSource yields UUID-like strings.
type SeedSource interface {
	Seed() string
}

// UUIDSource implements SeedSource on top of github.com/google/uuid.
type UUIDSource struct{}

// NewUUIDSource creates a UUIDSource.
func NewUUIDSource() UUIDSource { return UUIDSource{} }

// Seed returns a fresh UUID string.
func (UUIDSource) Seed() string { return uuid.NewString() }

// Fixed is a SeedSource returning the same string every call. Intended for
// deterministic tests.
type Fixed string

// Seed returns the fixed string.
func (f Fixed) Seed() string { return string(f) }
