// Package partial models partial definitions: concepts that cover some of
// the positive examples and none of the negatives.
package partial

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kailas-cloud/celearn/internal/domain"
)

// Definition is an immutable partial definition.
type Definition struct {
	id               ulid.ULID
	concept          domain.Concept
	coveredPositives domain.ExampleSet
	generation       uint64
}

// NewDefinition creates a definition with an explicit generation order.
func NewDefinition(id ulid.ULID, c domain.Concept, covered domain.ExampleSet, generation uint64) Definition {
	if covered == nil {
		covered = domain.ExampleSet{}
	}
	return Definition{id: id, concept: c, coveredPositives: covered, generation: generation}
}

// NewID returns a fresh definition id stamped with t.
func NewID(t time.Time) ulid.ULID {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader)
}

// ID returns the definition id.
func (d Definition) ID() ulid.ULID { return d.id }

// Concept returns the defining concept.
func (d Definition) Concept() domain.Concept { return d.concept }

// CoveredPositives returns the covered positive examples (read-only).
func (d Definition) CoveredPositives() domain.ExampleSet { return d.coveredPositives }

// Generation returns the monotonic production counter.
func (d Definition) Generation() uint64 { return d.generation }

// Comparator orders definitions; negative means a comes first.
type Comparator func(a, b Definition) int

// ByGeneration orders by production order, tie-broken by canonical concept order.
func ByGeneration(a, b Definition) int {
	if a.generation != b.generation {
		if a.generation < b.generation {
			return -1
		}
		return 1
	}
	return domain.CompareConcepts(a.concept, b.concept)
}

// ByCompleteness orders by covered positives (descending), then shorter
// concept, then canonical concept order.
func ByCompleteness(a, b Definition) int {
	return domain.CompareCompleteness(
		a.coveredPositives.Len(), a.concept,
		b.coveredPositives.Len(), b.concept,
	)
}
