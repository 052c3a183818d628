package partial

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kailas-cloud/celearn/internal/domain"
)

// Collection is an append-only set of partial definitions shared by
// concurrent producers. Readers take point-in-time snapshots.
type Collection struct {
	mu      sync.Mutex
	defs    []Definition
	seen    map[string]struct{}
	next    uint64
	entropy io.Reader
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		seen:    make(map[string]struct{}),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Add records a definition for c, assigning the next generation number.
// A concept already present is ignored and reported with false.
func (c *Collection) Add(concept domain.Concept, covered domain.ExampleSet) (Definition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := concept.String()
	if _, dup := c.seen[key]; dup {
		return Definition{}, false
	}
	c.seen[key] = struct{}{}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy)
	def := NewDefinition(id, concept, covered.Clone(), c.next)
	c.next++
	c.defs = append(c.defs, def)
	return def, true
}

// Snapshot returns a copy of the current contents in insertion order.
func (c *Collection) Snapshot() []Definition {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Len returns the number of definitions.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.defs)
}
