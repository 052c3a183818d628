package learner

import (
	"context"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/score"
)

// Refiner produces the syntactic specializations of a concept. One call must terminate.
type Refiner interface {
	Refine(ctx context.Context, c domain.Concept) ([]domain.Concept, error)
}

// Scorer evaluates concepts against the learning problem.
type Scorer interface {
	// Score returns the coverage of c, or the too-weak sentinel under the given noise tolerance (0..1).
	Score(ctx context.Context, c domain.Concept, noise float64) (score.Coverage, error)
	// FullScore returns the complete score used for best-hypotheses admission.
	FullScore(ctx context.Context, c domain.Concept) (score.Detail, error)
}

// DefinitionSink receives viable concepts that cover no negative example.
type DefinitionSink interface {
	AddDefinition(ctx context.Context, c domain.Concept, cov score.Coverage) error
}
