package celearn

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/celearn/internal/db"
	dbRedis "github.com/kailas-cloud/celearn/internal/db/redis"
	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
	"github.com/kailas-cloud/celearn/internal/kb"
	"github.com/kailas-cloud/celearn/internal/repository/partialdef"
	"github.com/kailas-cloud/celearn/internal/repository/runresult"
	healthuc "github.com/kailas-cloud/celearn/internal/usecase/health"
	"github.com/kailas-cloud/celearn/internal/usecase/learner"
	"github.com/kailas-cloud/celearn/internal/usecase/reducer"
	runuc "github.com/kailas-cloud/celearn/internal/usecase/run"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultWorkers          = 2
)

// KnowledgeBase is a parsed, immutable knowledge base.
type KnowledgeBase struct {
	kb *kb.KB
}

// LoadKnowledgeBase reads a knowledge base from a YAML file.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	k, err := kb.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("celearn: %w", err)
	}
	return &KnowledgeBase{kb: k}, nil
}

// ParseKnowledgeBase reads a knowledge base document from r.
func ParseKnowledgeBase(r io.Reader) (*KnowledgeBase, error) {
	k, err := kb.Load(r)
	if err != nil {
		return nil, fmt.Errorf("celearn: %w", err)
	}
	return &KnowledgeBase{kb: k}, nil
}

// Stats counts the classes, roles and individuals.
func (k *KnowledgeBase) Stats() KBStats {
	st := k.kb.Stats()
	return KBStats(st)
}

// Individuals lists the named individuals in sorted order.
func (k *KnowledgeBase) Individuals() []string { return k.kb.Individuals() }

// Internal interface for substitution in tests.
type runUseCase interface {
	Start(ctx context.Context, req runuc.Request) (domrun.Summary, error)
	Wait(ctx context.Context, id string) (domrun.Summary, error)
	Stop(ctx context.Context, id string) error
	List(ctx context.Context) ([]domrun.Summary, error)
	Definitions(ctx context.Context, id string, allowance int) (reducer.Result, error)
	Shutdown(ctx context.Context) error
}

// Client is the celearn SDK entry point.
type Client struct {
	store     db.Store
	runSvc    runUseCase
	healthSvc healthUseCase
	allowance int
	obs       *observer
}

// New creates a Client learning over k. Results are kept in memory
// unless WithValkey or WithRedis is given, in which case the provided
// context is used for the initial readiness check.
func New(ctx context.Context, k *KnowledgeBase, opts ...Option) (*Client, error) {
	if k == nil {
		return nil, fmt.Errorf("celearn: knowledge base required: %w", ErrInvalidInput)
	}
	cfg := &clientConfig{workers: defaultWorkers}
	for _, o := range opts {
		o.apply(cfg)
	}

	var store db.Store
	if cfg.driver != "" {
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, fmt.Errorf("celearn: database address required: %w", ErrInvalidConfig)
		}
		s, err := createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("celearn: database not ready: %w", err)
		}
		store = s
	}

	c, err := wireClient(k, store, cfg)
	if err != nil && store != nil {
		store.Close()
	}
	return c, err
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("celearn: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("celearn: unknown driver %q: %w", cfg.driver, ErrInvalidConfig)
	}
}

func wireClient(k *KnowledgeBase, store db.Store, cfg *clientConfig) (*Client, error) {
	engine := learner.DefaultConfig()
	if cfg.timeBudget > 0 {
		engine.TimeBudget = cfg.timeBudget
	}
	if cfg.maxResults > 0 {
		engine.Capacity = cfg.maxResults
	}
	engine.NoisePercentage = cfg.noise
	engine.StopOnFirstDefinition = cfg.stopOnFirst
	engine.MaxExpansions = cfg.maxExpansions

	maxRoleDepth := cfg.maxRoleDepth
	if maxRoleDepth == 0 {
		maxRoleDepth = 2
	}

	var runOpts []runuc.Option
	var pinger healthuc.DBPinger
	if store != nil {
		runOpts = append(runOpts,
			runuc.WithSummaryRepository(runresult.New(store, cfg.resultTTL)),
			runuc.WithDefinitionRepository(partialdef.New(store, cfg.resultTTL)),
		)
		pinger = store
	}

	runSvc, err := runuc.New(k.kb, runuc.Config{
		Learner:            engine,
		Heuristic:          cfg.heuristic,
		MaxRoleDepth:       maxRoleDepth,
		Workers:            cfg.workers,
		UncoveredAllowance: cfg.allowance,
	}, runOpts...)
	if err != nil {
		return nil, fmt.Errorf("celearn: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:     store,
		runSvc:    runSvc,
		healthSvc: healthuc.New(pinger, k.kb),
		allowance: cfg.allowance,
		obs:       obs,
	}, nil
}

// Learn searches for a class expression separating the positives from
// the negatives and blocks until the search ends or ctx is done.
func (c *Client) Learn(ctx context.Context, p Problem) (Result, error) {
	start := time.Now()
	res, err := c.learn(ctx, p, domrun.ModeSingle)
	c.obs.observe("learn", start, err, "positives", len(p.Positives), "negatives", len(p.Negatives))
	if err == nil {
		c.obs.observeResult("learn", res)
	}
	return res, err
}

// LearnPartitioned splits the positives across workers, searches each
// share concurrently and reduces the definitions found to a small set.
func (c *Client) LearnPartitioned(ctx context.Context, p Problem) (Result, error) {
	start := time.Now()
	res, err := c.learn(ctx, p, domrun.ModePartitioned)
	c.obs.observe("learn_partitioned", start, err, "positives", len(p.Positives), "negatives", len(p.Negatives))
	if err == nil {
		c.obs.observeResult("learn_partitioned", res)
	}
	return res, err
}

func (c *Client) learn(ctx context.Context, p Problem, mode domrun.Mode) (Result, error) {
	started, err := c.runSvc.Start(ctx, runuc.Request{
		Positives: p.Positives,
		Negatives: p.Negatives,
		Seed:      p.Seed,
		Mode:      mode,
	})
	if err != nil {
		return Result{}, fmt.Errorf("celearn: start: %w", err)
	}
	sum, err := c.runSvc.Wait(ctx, started.ID)
	if err != nil {
		_ = c.runSvc.Stop(context.WithoutCancel(ctx), started.ID)
		return Result{}, fmt.Errorf("celearn: run %s: %w", started.ID, err)
	}
	red, err := c.runSvc.Definitions(ctx, started.ID, c.allowance)
	if err != nil {
		return Result{}, fmt.Errorf("celearn: definitions of run %s: %w", started.ID, err)
	}
	return resultFromSummary(sum, red), nil
}

// Reduce selects a small subset of defs covering targets, leaving at
// most allowance of them uncovered. sortKey is "generation" (default)
// or "completeness".
func (c *Client) Reduce(defs []DefinitionInput, targets []string, allowance int, sortKey string) (Reduction, error) {
	start := time.Now()
	items := make([]runuc.ReduceItem, len(defs))
	for i, d := range defs {
		items[i] = runuc.ReduceItem{Concept: d.Concept, Covered: d.Covered}
	}
	res, err := runuc.ReduceItems(items, targets, allowance, sortKey, nil)
	c.obs.observe("reduce", start, err, "definitions", len(defs))
	if err != nil {
		return Reduction{}, fmt.Errorf("celearn: reduce: %w", err)
	}
	return reductionFromResult(res), nil
}

// Runs lists known runs, most recent first. With a database configured
// this includes runs of earlier clients.
func (c *Client) Runs(ctx context.Context) ([]Result, error) {
	start := time.Now()
	sums, err := c.runSvc.List(ctx)
	c.obs.observe("runs", start, err)
	if err != nil {
		return nil, fmt.Errorf("celearn: list runs: %w", err)
	}
	out := make([]Result, len(sums))
	for i, s := range sums {
		out[i] = resultFromSummary(s, reducer.Result{})
	}
	return out, nil
}

// Ping checks database connectivity. It succeeds trivially without a database.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("celearn: ping: %w", err)
	}
	return nil
}

// Close stops running searches and closes the database connection.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultReadinessTimeout)
	defer cancel()
	err := c.runSvc.Shutdown(ctx)
	if c.store != nil {
		c.store.Close()
	}
	if err != nil {
		return fmt.Errorf("celearn: close: %w", err)
	}
	return nil
}
