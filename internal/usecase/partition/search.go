// Package partition runs several search engines over disjoint slices of the
// positive examples and merges their partial definitions.
package partition

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/partial"
	"github.com/kailas-cloud/celearn/internal/domain/score"
	"github.com/kailas-cloud/celearn/internal/usecase/learner"
	"github.com/kailas-cloud/celearn/internal/usecase/reducer"
)

// Config of a partitioned search.
type Config struct {
	Workers int
	Learner learner.Config
}

// Option configures a Search.
type Option func(*Search)

// WithEngineOptions passes options to every worker engine.
func WithEngineOptions(opts ...learner.Option) Option {
	return func(s *Search) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithReducer replaces the default generation-order reducer.
func WithReducer(r *reducer.Reducer) Option {
	return func(s *Search) {
		if r != nil {
			s.reducer = r
		}
	}
}

// WithDefinitionHook is called once per new shared definition.
func WithDefinitionHook(hook DefinitionHook) Option {
	return func(s *Search) {
		s.hook = hook
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Search) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Search owns one engine per non-empty partition and the shared
// collection they feed.
type Search struct {
	problem    Problem
	engines    []*learner.Engine
	defs       *partial.Collection
	reducer    *reducer.Reducer
	hook       DefinitionHook
	logger     *zap.Logger
	engineOpts []learner.Option
}

// New builds the worker engines. Workers beyond the number of positives
// are not started.
func New(seed domain.Concept, refiner learner.Refiner, problem Problem, cfg Config, opts ...Option) (*Search, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be positive, got %d: %w", cfg.Workers, domain.ErrInvalidConfig)
	}
	if problem == nil {
		return nil, fmt.Errorf("problem is required: %w", domain.ErrInvalidInput)
	}
	s := &Search{
		problem: problem,
		defs:    partial.NewCollection(),
		reducer: reducer.New(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	sink := &sharedSink{search: s}
	for i, part := range problem.Positives().Partition(cfg.Workers) {
		if part.Len() == 0 {
			continue
		}
		scorer, err := problem.Restrict(part)
		if err != nil {
			return nil, fmt.Errorf("restrict partition %d: %w", i, err)
		}
		engineOpts := append(append([]learner.Option{}, s.engineOpts...),
			learner.WithDefinitionSink(sink),
			learner.WithName(fmt.Sprintf("worker-%d", i)),
		)
		eng, err := learner.New(seed, refiner, scorer, cfg.Learner, engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("create worker %d: %w", i, err)
		}
		s.engines = append(s.engines, eng)
	}
	if len(s.engines) == 0 {
		return nil, fmt.Errorf("no positive examples to partition: %w", domain.ErrInvalidInput)
	}
	return s, nil
}

// Start runs all workers and waits for them. The first worker failure
// cancels the others and is returned.
func (s *Search) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, eng := range s.engines {
		g.Go(func() error {
			return eng.Start(gctx)
		})
	}
	err := g.Wait()

	s.logger.Info("Partitioned search finished",
		zap.Int("workers", len(s.engines)),
		zap.Int("definitions", s.defs.Len()),
		zap.Error(err),
	)
	return err
}

// Stop asks every worker to stop before its next expansion.
func (s *Search) Stop() {
	for _, eng := range s.engines {
		eng.Stop()
	}
}

// Reset returns all workers to idle. The shared collection is kept.
func (s *Search) Reset() error {
	var errs []error
	for _, eng := range s.engines {
		errs = append(errs, eng.Reset())
	}
	return errors.Join(errs...)
}

// Engines returns the worker engines.
func (s *Search) Engines() []*learner.Engine {
	return append([]*learner.Engine(nil), s.engines...)
}

// Definitions returns a snapshot of the shared partial definitions.
func (s *Search) Definitions() []partial.Definition {
	return s.defs.Snapshot()
}

// Reduce compacts the current shared definitions against all positives.
func (s *Search) Reduce(allowance int) (reducer.Result, error) {
	return s.reducer.ReduceFrom(s.defs, s.problem.Positives(), allowance)
}

// sharedSink recomputes coverage over all positives before a definition
// found on a partition enters the shared collection.
type sharedSink struct {
	search *Search
}

func (k *sharedSink) AddDefinition(ctx context.Context, c domain.Concept, _ score.Coverage) error {
	covered, err := k.search.problem.CoveredPositives(ctx, c)
	if err != nil {
		return fmt.Errorf("global coverage of %q: %w", c.String(), err)
	}
	def, added := k.search.defs.Add(c, covered)
	if !added || k.search.hook == nil {
		return nil
	}
	return k.search.hook(ctx, def)
}
