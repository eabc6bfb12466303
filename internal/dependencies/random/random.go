// Package random supplies identifiers for new accounts and items. Services
// take a Source so tests can fix the ids they expect.
package random

import "github.com/google/uuid"

// Source produces unique identifiers
type Source interface {
	// NewID returns an identifier not returned before
	NewID() string
}

// UUIDSource returns random (version 4) UUIDs
type UUIDSource struct{}

// New creates a new UUIDSource
func New() *UUIDSource {
	return &UUIDSource{}
}

// NewID returns a new random UUID in canonical form
func (s *UUIDSource) NewID() string {
	return uuid.NewString()
}
