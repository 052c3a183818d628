// Package heuristic provides the orderings used to pick the next node to expand.
package heuristic

import (
	"fmt"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/searchtree"
)

// Ordering is a strict total order over scored nodes. A negative result
// means a is more promising than b.
type Ordering func(a, b *searchtree.Node) int

// Names of the built-in orderings.
const (
	NameCoverage  = "coverage"
	NameNegatives = "negatives"
)

// Coverage prefers more covered positives, then shorter concepts, then the
// canonical concept order.
func Coverage(a, b *searchtree.Node) int {
	return domain.CompareCompleteness(
		a.Coverage().PositiveCount(), a.Concept(),
		b.Coverage().PositiveCount(), b.Concept(),
	)
}

// Negatives prefers fewer covered negatives, then shorter concepts, then the
// canonical concept order.
func Negatives(a, b *searchtree.Node) int {
	na, nb := a.Coverage().CoveredNegatives(), b.Coverage().CoveredNegatives()
	if na != nb {
		if na < nb {
			return -1
		}
		return 1
	}
	return domain.CompareConcepts(a.Concept(), b.Concept())
}

// ByName resolves a configured heuristic name. Empty selects Coverage.
func ByName(name string) (Ordering, error) {
	switch name {
	case "", NameCoverage:
		return Coverage, nil
	case NameNegatives:
		return Negatives, nil
	default:
		return nil, fmt.Errorf("unknown heuristic %q: %w", name, domain.ErrInvalidConfig)
	}
}
