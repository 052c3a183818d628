package celearn

import (
	"time"

	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
	"github.com/kailas-cloud/celearn/internal/usecase/reducer"
)

// Problem is a learning problem over the client's knowledge base.
type Problem struct {
	Positives []string
	Negatives []string
	// Seed is the concept the search starts from; empty means TOP.
	Seed string
}

// Hypothesis is a ranked class expression.
type Hypothesis struct {
	Concept          string
	Length           int
	Accuracy         float64
	CoveredPositives int
	CoveredNegatives int
}

// Definition is a class expression selected by a reduction.
type Definition struct {
	Concept  string
	Covered  []string
	Marginal int // positives it added to the cover
}

// Reduction is a small set of definitions covering the targets.
type Reduction struct {
	Definitions []Definition
	Uncovered   []string
}

// Complete reports whether every target is covered.
func (r Reduction) Complete() bool { return len(r.Uncovered) == 0 }

// Result is a finished run.
type Result struct {
	ID          string
	State       string
	Termination string
	Duration    time.Duration
	Expansions  int
	Nodes       int
	Best        []Hypothesis
	Reduction   Reduction
}

// DefinitionInput is a caller-supplied partial definition for Reduce.
type DefinitionInput struct {
	Concept string
	Covered []string
}

// KBStats describes a knowledge base.
type KBStats struct {
	Classes     int
	Roles       int
	Individuals int
}

func resultFromSummary(s domrun.Summary, red reducer.Result) Result {
	res := Result{
		ID:          s.ID,
		State:       s.State,
		Termination: s.Termination,
		Expansions:  s.Expansions,
		Nodes:       s.Nodes,
		Reduction:   reductionFromResult(red),
	}
	if s.Finished() {
		res.Duration = s.FinishedAt.Sub(s.StartedAt)
	}
	for _, h := range s.Best {
		res.Best = append(res.Best, Hypothesis(h))
	}
	return res
}

func reductionFromResult(r reducer.Result) Reduction {
	out := Reduction{Uncovered: r.Uncovered.Sorted()}
	for _, sel := range r.Selected {
		out.Definitions = append(out.Definitions, Definition{
			Concept:  sel.Definition.Concept().String(),
			Covered:  sel.Definition.CoveredPositives().Sorted(),
			Marginal: sel.Marginal,
		})
	}
	return out
}
