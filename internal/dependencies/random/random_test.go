package random

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDSourceReturnsDistinctUUIDs(t *testing.T) {
	src := New()
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := src.NewID()
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("not a uuid: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
