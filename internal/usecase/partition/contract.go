package partition

import (
	"context"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/partial"
	"github.com/kailas-cloud/celearn/internal/usecase/learner"
)

// Problem is a learning problem that can be split over its positives.
type Problem interface {
	Positives() domain.ExampleSet
	// Restrict returns a scorer that only sees the given positives.
	Restrict(positives domain.ExampleSet) (learner.Scorer, error)
	// CoveredPositives evaluates c against all positives of the problem.
	CoveredPositives(ctx context.Context, c domain.Concept) (domain.ExampleSet, error)
}

// DefinitionHook observes every new shared partial definition.
type DefinitionHook func(ctx context.Context, def partial.Definition) error
