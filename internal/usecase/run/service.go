// Package run manages learning runs: it starts them in the background,
// tracks their progress and persists their results.
package run

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/heuristic"
	"github.com/kailas-cloud/celearn/internal/domain/partial"
	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
	"github.com/kailas-cloud/celearn/internal/el"
	"github.com/kailas-cloud/celearn/internal/kb"
	"github.com/kailas-cloud/celearn/internal/kb/posneg"
	"github.com/kailas-cloud/celearn/internal/usecase/learner"
	"github.com/kailas-cloud/celearn/internal/usecase/partition"
	"github.com/kailas-cloud/celearn/internal/usecase/reducer"
)

// Option configures a Service.
type Option func(*Service)

// WithSummaryRepository persists run summaries.
func WithSummaryRepository(r SummaryRepository) Option {
	return func(s *Service) { s.summaries = r }
}

// WithDefinitionRepository persists partial definitions.
func WithDefinitionRepository(r DefinitionRepository) Option {
	return func(s *Service) { s.definitions = r }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEngineOptions passes options to every engine the service creates.
func WithEngineOptions(opts ...learner.Option) Option {
	return func(s *Service) { s.engineOpts = append(s.engineOpts, opts...) }
}

// Service runs learning problems over one knowledge base.
type Service struct {
	kb          *kb.KB
	cfg         Config
	summaries   SummaryRepository
	definitions DefinitionRepository
	logger      *zap.Logger
	engineOpts  []learner.Option
	newID       func() string
	now         func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu   sync.RWMutex
	runs map[string]*handle
}

// New creates a service. Runs outlive the request that started them and
// end on Shutdown.
func New(k *kb.KB, cfg Config, opts ...Option) (*Service, error) {
	if k == nil {
		return nil, fmt.Errorf("knowledge base is required: %w", domain.ErrInvalidInput)
	}
	if err := cfg.Learner.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.UncoveredAllowance < 0 {
		return nil, fmt.Errorf("uncovered allowance must not be negative: %w", domain.ErrInvalidConfig)
	}
	if _, err := heuristic.ByName(cfg.Heuristic); cfg.Heuristic != "" && err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		kb:      k,
		cfg:     cfg,
		logger:  zap.NewNop(),
		newID:   uuid.NewString,
		now:     time.Now,
		baseCtx: ctx,
		cancel:  cancel,
		runs:    make(map[string]*handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// KB returns the knowledge base the service learns over.
func (s *Service) KB() *kb.KB { return s.kb }

// Start validates req and launches the run in the background.
func (s *Service) Start(ctx context.Context, req Request) (domrun.Summary, error) {
	cfg, heuristicName, seed, err := s.resolve(req)
	if err != nil {
		return domrun.Summary{}, err
	}
	problem, err := posneg.New(s.kb, domain.NewExampleSet(req.Positives...), domain.NewExampleSet(req.Negatives...))
	if err != nil {
		return domrun.Summary{}, err
	}
	operator, err := el.NewOperator(s.kb, s.cfg.MaxRoleDepth)
	if err != nil {
		return domrun.Summary{}, err
	}

	engineOpts := slices.Clone(s.engineOpts)
	engineOpts = append(engineOpts, learner.WithLogger(s.logger))
	if heuristicName != "" {
		order, err := heuristic.ByName(heuristicName)
		if err != nil {
			return domrun.Summary{}, err
		}
		engineOpts = append(engineOpts, learner.WithHeuristic(order))
	}

	h := &handle{
		id:        s.newID(),
		mode:      req.Mode,
		startedAt: s.now(),
		positives: problem.Positives(),
		scorer:    problem,
		done:      make(chan struct{}),
	}
	if h.mode == "" {
		h.mode = domrun.ModeSingle
	}
	persist := s.definitionHook(h.id)

	switch h.mode {
	case domrun.ModeSingle:
		h.defs = partial.NewCollection()
		engineOpts = append(engineOpts,
			learner.WithDefinitionSink(&definitionSink{defs: h.defs, onAdd: persist}),
			learner.WithName(h.id),
		)
		h.engine, err = learner.New(seed, operator, problem, cfg, engineOpts...)
	case domrun.ModePartitioned:
		workers := s.cfg.Workers
		if req.Workers > 0 {
			workers = req.Workers
		}
		h.search, err = partition.New(seed, operator, problem,
			partition.Config{Workers: workers, Learner: cfg},
			partition.WithEngineOptions(engineOpts...),
			partition.WithDefinitionHook(persist),
			partition.WithLogger(s.logger),
		)
	}
	if err != nil {
		return domrun.Summary{}, err
	}

	s.mu.Lock()
	s.runs[h.id] = h
	s.mu.Unlock()

	summary := s.summarize(ctx, h)
	if s.summaries != nil {
		if err := s.summaries.Save(ctx, summary); err != nil {
			s.logger.Warn("save run summary failed", zap.String("run_id", h.id), zap.Error(err))
		}
	}

	s.logger.Info("run started",
		zap.String("run_id", h.id),
		zap.String("mode", string(h.mode)),
		zap.Int("positives", h.positives.Len()),
		zap.Int("negatives", problem.Negatives().Len()),
	)

	s.wg.Add(1)
	go s.execute(h)
	return summary, nil
}

func (s *Service) execute(h *handle) {
	defer s.wg.Done()
	defer close(h.done)

	err := h.start(s.baseCtx)
	h.finish(s.now(), err)

	// The base context may be cancelled by now.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.baseCtx), 5*time.Second)
	defer cancel()

	summary := s.summarize(ctx, h)
	h.settle(summary)
	if s.summaries != nil {
		if saveErr := s.summaries.Save(ctx, summary); saveErr != nil {
			s.logger.Warn("save run summary failed", zap.String("run_id", h.id), zap.Error(saveErr))
		}
	}
	fields := []zap.Field{
		zap.String("run_id", h.id),
		zap.String("state", summary.State),
		zap.String("termination", summary.Termination),
		zap.Int("definitions", summary.Definitions),
	}
	if err != nil {
		s.logger.Warn("run failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Info("run finished", fields...)
}

func (s *Service) definitionHook(runID string) partition.DefinitionHook {
	if s.definitions == nil {
		return nil
	}
	return func(ctx context.Context, def partial.Definition) error {
		if err := s.definitions.Save(ctx, runID, def); err != nil {
			return fmt.Errorf("persist definition: %w", err)
		}
		return nil
	}
}

// summarize builds the summary of an in-memory run. For partitioned runs
// the best hypotheses are the reduced definitions scored on all examples.
// A finished run returns the summary computed when it ended.
func (s *Service) summarize(ctx context.Context, h *handle) domrun.Summary {
	if sum, ok := h.settled(); ok {
		return sum
	}
	state, term, stats := h.state()
	finishedAt, err := h.result()
	out := domrun.Summary{
		ID:          h.id,
		Mode:        h.mode,
		State:       string(state),
		Termination: string(term),
		StartedAt:   h.startedAt,
		FinishedAt:  finishedAt,
		Expansions:  stats.Expansions,
		Nodes:       stats.Nodes,
		Positives:   h.positives.Sorted(),
	}
	if err != nil {
		out.Error = err.Error()
	}

	defs := h.definitions()
	out.Definitions = len(defs)

	if h.engine != nil {
		for _, ed := range h.engine.BestHypotheses() {
			out.Best = append(out.Best, hypothesis(ed))
		}
		return out
	}
	res, rerr := s.reduce(defs, h.positives, s.cfg.UncoveredAllowance, partial.ByGeneration)
	if rerr != nil {
		return out
	}
	for _, def := range res.Definitions() {
		detail, ferr := h.scorer.FullScore(ctx, def.Concept())
		if ferr != nil {
			s.logger.Debug("score reduced definition failed", zap.String("run_id", h.id), zap.Error(ferr))
			continue
		}
		out.Best = append(out.Best, domrun.Hypothesis{
			Concept:          def.Concept().String(),
			Length:           def.Concept().Length(),
			Accuracy:         detail.Accuracy(),
			CoveredPositives: len(detail.CoveredPositives()),
			CoveredNegatives: len(detail.CoveredNegatives()),
		})
	}
	return out
}

func (s *Service) reduce(defs []partial.Definition, targets domain.ExampleSet, allowance int, key partial.Comparator) (reducer.Result, error) {
	return reducer.New(reducer.WithSortKey(key), reducer.WithLogger(s.logger)).Reduce(defs, targets, allowance)
}

func (s *Service) lookup(id string) (*handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.runs[id]
	return h, ok
}

// Get returns the summary of a run held in memory or persisted.
func (s *Service) Get(ctx context.Context, id string) (domrun.Summary, error) {
	if h, ok := s.lookup(id); ok {
		return s.summarize(ctx, h), nil
	}
	if s.summaries == nil {
		return domrun.Summary{}, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	return s.summaries.Get(ctx, id)
}

// List returns all known runs, most recent first.
func (s *Service) List(ctx context.Context) ([]domrun.Summary, error) {
	s.mu.RLock()
	handles := make([]*handle, 0, len(s.runs))
	for _, h := range s.runs {
		handles = append(handles, h)
	}
	s.mu.RUnlock()

	seen := make(map[string]struct{}, len(handles))
	out := make([]domrun.Summary, 0, len(handles))
	for _, h := range handles {
		seen[h.id] = struct{}{}
		out = append(out, s.summarize(ctx, h))
	}
	if s.summaries != nil {
		stored, err := s.summaries.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		for _, sum := range stored {
			if _, ok := seen[sum.ID]; !ok {
				out = append(out, sum)
			}
		}
	}
	slices.SortFunc(out, func(a, b domrun.Summary) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return compareStrings(a.ID, b.ID)
	})
	return out, nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Stop asks a running run to stop. Stopping a finished run is a no-op.
func (s *Service) Stop(_ context.Context, id string) error {
	h, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	h.stop()
	s.logger.Info("run stop requested", zap.String("run_id", id))
	return nil
}

// Wait blocks until the run finishes or ctx is done.
func (s *Service) Wait(ctx context.Context, id string) (domrun.Summary, error) {
	h, ok := s.lookup(id)
	if !ok {
		return domrun.Summary{}, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	select {
	case <-h.done:
		return s.summarize(ctx, h), nil
	case <-ctx.Done():
		return domrun.Summary{}, ctx.Err()
	}
}

// Tree dumps the search tree of an in-memory run.
func (s *Service) Tree(_ context.Context, id string) (string, error) {
	h, ok := s.lookup(id)
	if !ok {
		return "", fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	return h.tree(), nil
}

// Definitions reduces the partial definitions of a run to a small set
// covering its positive examples, leaving at most allowance uncovered.
func (s *Service) Definitions(ctx context.Context, id string, allowance int) (reducer.Result, error) {
	if h, ok := s.lookup(id); ok {
		return s.reduce(h.definitions(), h.positives, allowance, partial.ByGeneration)
	}
	if s.summaries == nil || s.definitions == nil {
		return reducer.Result{}, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	sum, err := s.summaries.Get(ctx, id)
	if err != nil {
		return reducer.Result{}, err
	}
	defs, err := s.definitions.List(ctx, id)
	if err != nil {
		return reducer.Result{}, fmt.Errorf("list definitions: %w", err)
	}
	return s.reduce(defs, domain.NewExampleSet(sum.Positives...), allowance, partial.ByGeneration)
}

// ReduceItem is a caller-supplied partial definition.
type ReduceItem struct {
	Concept string
	Covered []string
}

// Reduce runs the reducer over caller-supplied definitions.
func (s *Service) Reduce(items []ReduceItem, targets []string, allowance int, sortKey string) (reducer.Result, error) {
	return ReduceItems(items, targets, allowance, sortKey, s.logger)
}

// ReduceItems parses items and reduces them. Items keep their input order
// as generation order.
func ReduceItems(items []ReduceItem, targets []string, allowance int, sortKey string, logger *zap.Logger) (reducer.Result, error) {
	key, err := reducer.SortKeyByName(sortKey)
	if err != nil {
		return reducer.Result{}, err
	}
	now := time.Now()
	defs := make([]partial.Definition, 0, len(items))
	for i, it := range items {
		c, err := el.Parse(it.Concept)
		if err != nil {
			return reducer.Result{}, fmt.Errorf("item %d: %w", i, err)
		}
		defs = append(defs, partial.NewDefinition(
			partial.NewID(now), c, domain.NewExampleSet(it.Covered...), uint64(i),
		))
	}
	return reducer.New(reducer.WithSortKey(key), reducer.WithLogger(logger)).
		Reduce(defs, domain.NewExampleSet(targets...), allowance)
}

// Shutdown stops all runs and waits for them until ctx is done.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("runs still active at shutdown"), ctx.Err())
	}
}
