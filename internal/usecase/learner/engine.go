// Package learner implements the best-first refinement search over class expressions.
package learner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/frontier"
	"github.com/kailas-cloud/celearn/internal/domain/heuristic"
	"github.com/kailas-cloud/celearn/internal/domain/hypotheses"
	"github.com/kailas-cloud/celearn/internal/domain/score"
	"github.com/kailas-cloud/celearn/internal/domain/searchtree"
	"github.com/kailas-cloud/celearn/internal/metrics"
)

const tracerName = "celearn.learner"

// Stats are counters of the current or last run.
type Stats struct {
	Expansions        int
	Nodes             int
	TooWeak           int
	FullScores        int
	FullScoresSkipped int
	Definitions       int
	Elapsed           time.Duration
}

// Status is a point-in-time view of the engine.
type Status struct {
	State       State
	Termination Termination
	Err         error
	Stats       Stats
	FrontierLen int
}

// Engine drives one best-first search. The loop itself is single-threaded;
// Stop and the read accessors may be called from other goroutines.
type Engine struct {
	seed    domain.Concept
	refiner Refiner
	scorer  Scorer
	cfg     Config
	order   heuristic.Ordering
	sink    DefinitionSink
	logger  *zap.Logger
	tracer  trace.Tracer
	now     func() time.Time
	name    string

	stopRequested atomic.Bool

	mu          sync.RWMutex
	state       State
	termination Termination
	err         error
	tree        *searchtree.Tree
	frontier    *frontier.Frontier
	best        *hypotheses.Set
	stats       Stats
	startedAt   time.Time
}

// New creates an idle engine that will search from seed.
func New(seed domain.Concept, refiner Refiner, scorer Scorer, cfg Config, opts ...Option) (*Engine, error) {
	if seed == nil || refiner == nil || scorer == nil {
		return nil, fmt.Errorf("seed, refiner and scorer are required: %w", domain.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		seed:    seed,
		refiner: refiner,
		scorer:  scorer,
		cfg:     cfg,
		order:   heuristic.Coverage,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}

	best, err := hypotheses.New(cfg.Capacity)
	if err != nil {
		return nil, err
	}
	e.best = best
	e.tree = searchtree.New()
	e.frontier = frontier.New(e.order)
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Start runs the search until a stopping criterion holds, Stop is called,
// ctx is cancelled, or a collaborator fails. It is valid only from Idle.
// Stop yields a nil error; cancellation returns the context error.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateIdle {
		s := e.state
		e.mu.Unlock()
		return invalidState("start", s)
	}
	e.state = StateRunning
	e.startedAt = e.now()
	e.mu.Unlock()

	ctx, span := e.startSpan(ctx)
	defer span.End()

	e.logger.Info("Search started",
		zap.String("engine", e.name),
		zap.String("seed", e.seed.String()),
		zap.Duration("time_budget", e.cfg.TimeBudget),
		zap.Float64("noise", e.cfg.Noise()),
		zap.Int("capacity", e.cfg.Capacity),
		zap.Bool("stop_on_first_definition", e.cfg.StopOnFirstDefinition),
	)

	state, term, err := e.loop(ctx)
	e.finish(state, term, err)
	endSpan(span, e.Status())
	return err
}

// loop returns the final state and why the run ended.
func (e *Engine) loop(ctx context.Context) (State, Termination, error) {
	if err := e.addNode(ctx, searchtree.NoParent, e.seed); err != nil {
		return StateStopped, TerminationFailed, err
	}

	for {
		if e.stopRequested.Load() {
			return StateStopped, TerminationStopRequested, nil
		}
		if err := ctx.Err(); err != nil {
			return StateStopped, TerminationStopRequested, fmt.Errorf("search cancelled: %w", err)
		}
		if term, done := e.stoppingCriteria(); done {
			return StateCompleted, term, nil
		}
		if err := e.expand(ctx); err != nil {
			return StateStopped, TerminationFailed, err
		}
	}
}

func (e *Engine) stoppingCriteria() (Termination, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	top, ok := e.frontier.PeekBest()
	if !ok {
		return TerminationFrontierEmpty, true
	}
	if e.now().Sub(e.startedAt) >= e.cfg.TimeBudget {
		return TerminationTimeBudget, true
	}
	if e.cfg.MaxExpansions > 0 && e.stats.Expansions >= e.cfg.MaxExpansions {
		return TerminationMaxExpansions, true
	}
	if e.cfg.StopOnFirstDefinition && top.Coverage().CoveredNegatives() == 0 {
		return TerminationDefinition, true
	}
	return TerminationNone, false
}

// expand refines the current best frontier node and adds its children.
func (e *Engine) expand(ctx context.Context) error {
	e.mu.Lock()
	best, _ := e.frontier.PopBest()
	e.stats.Expansions++
	e.mu.Unlock()
	metrics.LearnerExpansionsTotal.Inc()

	refinements, err := e.refiner.Refine(ctx, best.Concept())
	if err != nil {
		return &CollaboratorError{Op: OpRefine, Concept: best.Concept().String(), Err: err}
	}

	for _, r := range refinements {
		if err := e.addNode(ctx, best.ID(), r); err != nil {
			return err
		}
	}

	if ce := e.logger.Check(zap.DebugLevel, "Node expanded"); ce != nil {
		e.mu.RLock()
		frontierLen, expansions := e.frontier.Len(), e.stats.Expansions
		e.mu.RUnlock()
		ce.Write(
			zap.String("engine", e.name),
			zap.String("concept", best.Concept().String()),
			zap.Int("refinements", len(refinements)),
			zap.Int("frontier", frontierLen),
			zap.Int("expansion", expansions),
		)
	}
	return nil
}

// addNode creates, scores and files one node. parent is NoParent for the root.
func (e *Engine) addNode(ctx context.Context, parent searchtree.NodeID, c domain.Concept) error {
	e.mu.Lock()
	var (
		node *searchtree.Node
		err  error
	)
	if parent == searchtree.NoParent {
		node, err = e.tree.NewRoot(c)
	} else {
		node, err = e.tree.AddChild(parent, c)
	}
	if err == nil {
		e.stats.Nodes++
	}
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("add search tree node: %w", err)
	}

	cov, err := e.scorer.Score(ctx, c, e.cfg.Noise())
	if err != nil {
		return &CollaboratorError{Op: OpScore, Concept: c.String(), Err: err}
	}

	e.mu.Lock()
	if err := e.tree.SetCoverage(node.ID(), cov); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("score node: %w", err)
	}
	if node.IsTooWeak() {
		e.stats.TooWeak++
		e.mu.Unlock()
		metrics.LearnerNodesTotal.WithLabelValues("too_weak").Inc()
		return nil
	}
	e.frontier.Insert(node)
	// The threshold is re-read per node, so it can move within one expansion.
	admissible := !e.best.Full()
	if worst, ok := e.best.Worst(); ok && worst.CoveredNegatives() >= cov.CoveredNegatives() {
		admissible = true
	}
	if !admissible {
		e.stats.FullScoresSkipped++
	}
	e.mu.Unlock()
	metrics.LearnerNodesTotal.WithLabelValues("viable").Inc()

	if e.sink != nil && cov.CoveredNegatives() == 0 && cov.PositiveCount() > 0 {
		if err := e.sink.AddDefinition(ctx, c, cov); err != nil {
			return fmt.Errorf("record partial definition %q: %w", c.String(), err)
		}
		e.mu.Lock()
		e.stats.Definitions++
		e.mu.Unlock()
	}

	if !admissible {
		metrics.LearnerFullScoresSkipped.Inc()
		return nil
	}

	detail, err := e.scorer.FullScore(ctx, c)
	if err != nil {
		return &CollaboratorError{Op: OpFullScore, Concept: c.String(), Err: err}
	}

	e.mu.Lock()
	e.stats.FullScores++
	admitted := e.best.Add(score.NewEvaluatedDescription(c, detail))
	e.mu.Unlock()

	if admitted {
		metrics.LearnerFullScoresTotal.WithLabelValues("admitted").Inc()
	} else {
		metrics.LearnerFullScoresTotal.WithLabelValues("rejected").Inc()
	}
	return nil
}

func (e *Engine) finish(state State, term Termination, err error) {
	e.mu.Lock()
	e.state = state
	e.termination = term
	e.err = err
	e.stats.Elapsed = e.now().Sub(e.startedAt)
	stats := e.stats
	bestAcc := -1.0
	if b, ok := e.best.Best(); ok {
		bestAcc = b.Accuracy()
	}
	e.mu.Unlock()

	metrics.LearnerRunsTotal.WithLabelValues(string(term)).Inc()
	metrics.LearnerRunDuration.WithLabelValues(string(term)).Observe(stats.Elapsed.Seconds())

	fields := []zap.Field{
		zap.String("engine", e.name),
		zap.String("state", string(state)),
		zap.String("termination", string(term)),
		zap.Int("expansions", stats.Expansions),
		zap.Int("nodes", stats.Nodes),
		zap.Int("too_weak", stats.TooWeak),
		zap.Int("full_scores", stats.FullScores),
		zap.Float64("best_accuracy", bestAcc),
		zap.Duration("elapsed", stats.Elapsed),
	}
	if err != nil {
		e.logger.Error("Search aborted", append(fields, zap.Error(err))...)
		return
	}
	e.logger.Info("Search finished", fields...)
}

// Stop requests termination before the next expansion. An expansion in
// progress is not interrupted. A request made before Start is kept and
// ends the run right after the root is scored; only Reset clears it.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
}

// Reset clears the search state so the engine can run again.
// It is rejected while the engine is running.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateRunning {
		return invalidState("reset", e.state)
	}
	e.frontier.Clear()
	e.best.Clear()
	e.tree = searchtree.New()
	e.stats = Stats{}
	e.state = StateIdle
	e.termination = TerminationNone
	e.err = nil
	e.stopRequested.Store(false)
	return nil
}

// IsRunning reports whether the search loop is active.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == StateRunning
}

// Status returns the current lifecycle state and counters.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	stats := e.stats
	if e.state == StateRunning {
		stats.Elapsed = e.now().Sub(e.startedAt)
	}
	return Status{
		State:       e.state,
		Termination: e.termination,
		Err:         e.err,
		Stats:       stats,
		FrontierLen: e.frontier.Len(),
	}
}

// BestHypotheses returns the retained descriptions, best first. Safe mid-run.
func (e *Engine) BestHypotheses() []score.EvaluatedDescription {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.best.Items()
}

// Best returns the currently best description.
func (e *Engine) Best() (score.EvaluatedDescription, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.best.Best()
}

func (e *Engine) searchTree() *searchtree.Tree {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree
}

// SearchTreeRoot returns the root node for read-only traversal, nil before
// the first run. The tree keeps growing while the engine runs, so walk it
// only after Start returns; use TreeString for a view taken mid-run.
func (e *Engine) SearchTreeRoot() *searchtree.Node {
	return e.searchTree().Root()
}

// TreeString renders the search tree under the read lock.
func (e *Engine) TreeString() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.String()
}
