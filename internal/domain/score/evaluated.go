package score

import (
	"github.com/kailas-cloud/celearn/internal/domain"
)

// EvaluatedDescription pairs a concept with its full score.
type EvaluatedDescription struct {
	concept domain.Concept
	detail  Detail
}

// NewEvaluatedDescription creates an evaluated description.
func NewEvaluatedDescription(c domain.Concept, d Detail) EvaluatedDescription {
	return EvaluatedDescription{concept: c, detail: d}
}

// Concept returns the described concept.
func (e EvaluatedDescription) Concept() domain.Concept { return e.concept }

// Detail returns the full score.
func (e EvaluatedDescription) Detail() Detail { return e.detail }

// Accuracy is a shortcut for Detail().Accuracy().
func (e EvaluatedDescription) Accuracy() float64 { return e.detail.accuracy }

// CoveredNegatives returns the number of covered negatives.
func (e EvaluatedDescription) CoveredNegatives() int { return len(e.detail.coveredNegatives) }

// Compare orders evaluated descriptions best first: higher accuracy, then
// shorter concept, then canonical concept order.
func Compare(a, b EvaluatedDescription) int {
	if a.detail.accuracy != b.detail.accuracy {
		if a.detail.accuracy > b.detail.accuracy {
			return -1
		}
		return 1
	}
	return domain.CompareConcepts(a.concept, b.concept)
}
