// Package posneg is the positive/negative learning problem: it scores
// concepts by the examples they cover.
package posneg

import (
	"context"
	"fmt"
	"math"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/score"
	"github.com/kailas-cloud/celearn/internal/el"
	"github.com/kailas-cloud/celearn/internal/kb"
	"github.com/kailas-cloud/celearn/internal/usecase/learner"
	"github.com/kailas-cloud/celearn/internal/usecase/partition"
)

// Problem scores concepts against fixed positive and negative examples.
type Problem struct {
	kb        *kb.KB
	positives domain.ExampleSet
	negatives domain.ExampleSet
}

var (
	_ learner.Scorer    = (*Problem)(nil)
	_ partition.Problem = (*Problem)(nil)
)

// New validates the examples against k.
func New(k *kb.KB, positives, negatives domain.ExampleSet) (*Problem, error) {
	if k == nil {
		return nil, fmt.Errorf("knowledge base is required: %w", domain.ErrInvalidInput)
	}
	if positives.Len() == 0 {
		return nil, fmt.Errorf("at least one positive example is required: %w", domain.ErrInvalidInput)
	}
	for _, set := range []domain.ExampleSet{positives, negatives} {
		for _, ind := range set.Sorted() {
			if !k.HasIndividual(ind) {
				return nil, fmt.Errorf("%w: %s", domain.ErrUnknownIndividual, ind)
			}
		}
	}
	if n := positives.IntersectLen(negatives); n > 0 {
		return nil, fmt.Errorf("%d examples are both positive and negative: %w", n, domain.ErrInvalidInput)
	}
	return &Problem{kb: k, positives: positives.Clone(), negatives: negatives.Clone()}, nil
}

// Positives returns the positive examples.
func (p *Problem) Positives() domain.ExampleSet { return p.positives.Clone() }

// Negatives returns the negative examples.
func (p *Problem) Negatives() domain.ExampleSet { return p.negatives.Clone() }

// Score returns the coverage of c, or the too-weak coverage when more than
// ceil(noise*|P|) positives are left uncovered.
func (p *Problem) Score(ctx context.Context, c domain.Concept, noise float64) (score.Coverage, error) {
	ec, err := p.concept(ctx, c)
	if err != nil {
		return score.Coverage{}, err
	}

	covered, err := p.kb.Instances(ec, p.positives)
	if err != nil {
		return score.Coverage{}, err
	}
	maxNotCovered := int(math.Ceil(noise * float64(p.positives.Len())))
	if p.positives.Len()-covered.Len() > maxNotCovered {
		return score.TooWeakCoverage(), nil
	}

	coveredNeg, err := p.kb.Instances(ec, p.negatives)
	if err != nil {
		return score.Coverage{}, err
	}
	return score.NewCoverage(covered, coveredNeg.Len(), p.accuracy(covered.Len(), coveredNeg.Len())), nil
}

// FullScore returns the complete split of both example sets.
func (p *Problem) FullScore(ctx context.Context, c domain.Concept) (score.Detail, error) {
	ec, err := p.concept(ctx, c)
	if err != nil {
		return score.Detail{}, err
	}

	coveredPos, err := p.kb.Instances(ec, p.positives)
	if err != nil {
		return score.Detail{}, err
	}
	coveredNeg, err := p.kb.Instances(ec, p.negatives)
	if err != nil {
		return score.Detail{}, err
	}

	notPos := p.positives.Clone()
	notPos.RemoveAll(coveredPos)
	notNeg := p.negatives.Clone()
	notNeg.RemoveAll(coveredNeg)

	acc := p.accuracy(coveredPos.Len(), coveredNeg.Len())
	return score.NewDetail(coveredPos, notPos, coveredNeg, notNeg, acc), nil
}

// Restrict returns the same problem over a subset of the positives.
func (p *Problem) Restrict(positives domain.ExampleSet) (learner.Scorer, error) {
	for id := range positives {
		if !p.positives.Has(id) {
			return nil, fmt.Errorf("%s is not a positive example: %w", id, domain.ErrInvalidInput)
		}
	}
	return New(p.kb, positives, p.negatives)
}

// CoveredPositives returns the positives that are instances of c.
func (p *Problem) CoveredPositives(ctx context.Context, c domain.Concept) (domain.ExampleSet, error) {
	ec, err := p.concept(ctx, c)
	if err != nil {
		return nil, err
	}
	return p.kb.Instances(ec, p.positives)
}

func (p *Problem) accuracy(coveredPos, coveredNeg int) float64 {
	total := p.positives.Len() + p.negatives.Len()
	return float64(coveredPos+p.negatives.Len()-coveredNeg) / float64(total)
}

func (p *Problem) concept(ctx context.Context, c domain.Concept) (el.Concept, error) {
	if err := ctx.Err(); err != nil {
		return el.Concept{}, err
	}
	ec, err := el.FromConcept(c)
	if err != nil {
		return el.Concept{}, fmt.Errorf("%w: %w", domain.ErrUnsupportedConcept, err)
	}
	return ec, nil
}
