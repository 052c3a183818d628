// Package reducer compacts partial definitions into a small covering subset.
package reducer

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/partial"
	"github.com/kailas-cloud/celearn/internal/metrics"
)

// Source provides a point-in-time copy of partial definitions.
type Source interface {
	Snapshot() []partial.Definition
}

// Selection is an accepted definition with the number of target positives
// it removed from the uncovered set when it was accepted.
type Selection struct {
	Definition partial.Definition
	Marginal   int
}

// Result of a reduction.
type Result struct {
	Selected  []Selection
	Uncovered domain.ExampleSet
}

// Definitions returns the accepted definitions in selection order.
func (r Result) Definitions() []partial.Definition {
	out := make([]partial.Definition, len(r.Selected))
	for i, s := range r.Selected {
		out[i] = s.Definition
	}
	return out
}

// Complete reports whether every target positive is covered.
func (r Result) Complete() bool { return r.Uncovered.Len() == 0 }

// Reducer runs a greedy scan over definitions in a fixed order.
// It holds no state between calls.
type Reducer struct {
	sortKey partial.Comparator
	logger  *zap.Logger
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithSortKey sets the scan order. Defaults to generation order.
func WithSortKey(key partial.Comparator) Option {
	return func(r *Reducer) {
		if key != nil {
			r.sortKey = key
		}
	}
}

// WithLogger sets the reducer logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reducer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a reducer.
func New(opts ...Option) *Reducer {
	r := &Reducer{sortKey: partial.ByGeneration, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SortKeyByName resolves "generation" (default) or "completeness".
func SortKeyByName(name string) (partial.Comparator, error) {
	switch name {
	case "", "generation":
		return partial.ByGeneration, nil
	case "completeness":
		return partial.ByCompleteness, nil
	default:
		return nil, fmt.Errorf("unknown reducer sort key %q: %w", name, domain.ErrInvalidConfig)
	}
}

// ReduceFrom snapshots src and reduces the snapshot.
func (r *Reducer) ReduceFrom(src Source, targets domain.ExampleSet, allowance int) (Result, error) {
	return r.Reduce(src.Snapshot(), targets, allowance)
}

// Reduce scans defs in sort-key order and accepts every definition that
// still covers an uncovered target, until at most allowance targets remain
// uncovered. Running out of definitions first yields a partial cover.
func (r *Reducer) Reduce(defs []partial.Definition, targets domain.ExampleSet, allowance int) (Result, error) {
	if allowance < 0 {
		return Result{}, fmt.Errorf("uncovered allowance must not be negative, got %d: %w", allowance, domain.ErrInvalidInput)
	}

	ordered := slices.Clone(defs)
	slices.SortStableFunc(ordered, r.sortKey)

	uncovered := targets.Clone()
	var selected []Selection
	for _, def := range ordered {
		if uncovered.Len() <= allowance {
			break
		}
		if removed := uncovered.RemoveAll(def.CoveredPositives()); removed > 0 {
			selected = append(selected, Selection{Definition: def, Marginal: removed})
		}
	}

	metrics.ReducerSelectedDefinitions.Observe(float64(len(selected)))
	r.logger.Debug("Definitions reduced",
		zap.Int("input", len(defs)),
		zap.Int("selected", len(selected)),
		zap.Int("targets", targets.Len()),
		zap.Int("uncovered", uncovered.Len()),
		zap.Int("allowance", allowance),
	)

	return Result{Selected: selected, Uncovered: uncovered}, nil
}
