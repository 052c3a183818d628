// Package score holds the immutable coverage values produced by scoring collaborators.
package score

import (
	"github.com/kailas-cloud/celearn/internal/domain"
)

// TooWeak is the accuracy sentinel for candidates that cannot reach the
// noise-tolerant threshold.
const TooWeak = -1.0

// Coverage is the cheap score computed for every search tree node.
type Coverage struct {
	coveredPositives domain.ExampleSet
	coveredNegatives int
	accuracy         float64
}

// NewCoverage creates a coverage score. The positive set is owned by the
// returned value and must not be mutated afterwards.
func NewCoverage(coveredPositives domain.ExampleSet, coveredNegatives int, accuracy float64) Coverage {
	if coveredPositives == nil {
		coveredPositives = domain.ExampleSet{}
	}
	return Coverage{
		coveredPositives: coveredPositives,
		coveredNegatives: coveredNegatives,
		accuracy:         accuracy,
	}
}

// TooWeakCoverage returns the sentinel score for a too-weak candidate.
func TooWeakCoverage() Coverage {
	return Coverage{coveredPositives: domain.ExampleSet{}, coveredNegatives: -1, accuracy: TooWeak}
}

// CoveredPositives returns the covered positive examples (read-only).
func (c Coverage) CoveredPositives() domain.ExampleSet { return c.coveredPositives }

// PositiveCount returns the number of covered positives.
func (c Coverage) PositiveCount() int { return len(c.coveredPositives) }

// CoveredNegatives returns the number of covered negatives.
func (c Coverage) CoveredNegatives() int { return c.coveredNegatives }

// Accuracy returns the accuracy in [-1,1].
func (c Coverage) Accuracy() float64 { return c.accuracy }

// IsTooWeak reports whether the accuracy is the too-weak sentinel.
func (c Coverage) IsTooWeak() bool { return c.accuracy == TooWeak }

// Detail is the full, more expensive score used for best-hypotheses admission.
type Detail struct {
	coveredPositives    []string
	notCoveredPositives []string
	coveredNegatives    []string
	notCoveredNegatives []string
	accuracy            float64
}

// NewDetail creates a full score from the four example partitions.
func NewDetail(coveredPos, notCoveredPos, coveredNeg, notCoveredNeg domain.ExampleSet, accuracy float64) Detail {
	return Detail{
		coveredPositives:    coveredPos.Sorted(),
		notCoveredPositives: notCoveredPos.Sorted(),
		coveredNegatives:    coveredNeg.Sorted(),
		notCoveredNegatives: notCoveredNeg.Sorted(),
		accuracy:            accuracy,
	}
}

// CoveredPositives returns covered positive examples in sorted order.
func (d Detail) CoveredPositives() []string { return d.coveredPositives }

// NotCoveredPositives returns missed positive examples in sorted order.
func (d Detail) NotCoveredPositives() []string { return d.notCoveredPositives }

// CoveredNegatives returns covered negative examples in sorted order.
func (d Detail) CoveredNegatives() []string { return d.coveredNegatives }

// NotCoveredNegatives returns excluded negative examples in sorted order.
func (d Detail) NotCoveredNegatives() []string { return d.notCoveredNegatives }

// Accuracy returns the accuracy.
func (d Detail) Accuracy() float64 { return d.accuracy }

// IsCorrect reports whether no negative example is covered.
func (d Detail) IsCorrect() bool { return len(d.coveredNegatives) == 0 }

// IsComplete reports whether every positive example is covered.
func (d Detail) IsComplete() bool { return len(d.notCoveredPositives) == 0 }
