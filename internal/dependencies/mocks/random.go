package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/lostfound/internal/dependencies/random"
)

// MockRandom is a mock id Source for testing
type MockRandom struct {
	mu sync.Mutex

	// IDResults is a queue of ids to return from NewID
	IDResults []string
	idIndex   int

	// Prefix names ids generated once the queue is empty
	Prefix string
	next   int
}

// Ensure MockRandom implements Source
var _ random.Source = (*MockRandom)(nil)

// NewMockRandom creates a MockRandom that yields the given ids in order,
// then "id-1", "id-2", ...
func NewMockRandom(ids ...string) *MockRandom {
	return &MockRandom{IDResults: ids, Prefix: "id"}
}

// NewID returns the next queued id, or a sequential one if none remaining
func (r *MockRandom) NewID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.idIndex < len(r.IDResults) {
		id := r.IDResults[r.idIndex]
		r.idIndex++
		return id
	}
	r.next++
	return fmt.Sprintf("%s-%d", r.Prefix, r.next)
}
