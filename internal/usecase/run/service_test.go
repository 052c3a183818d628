package run

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/partial"
	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
	"github.com/kailas-cloud/celearn/internal/domain/score"
	"github.com/kailas-cloud/celearn/internal/kb"
	"github.com/kailas-cloud/celearn/internal/usecase/learner"
)

type memSummaries struct {
	mu   sync.Mutex
	rows map[string]domrun.Summary
}

func newMemSummaries() *memSummaries {
	return &memSummaries{rows: make(map[string]domrun.Summary)}
}

func (m *memSummaries) Save(_ context.Context, s domrun.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = s
	return nil
}

func (m *memSummaries) Get(_ context.Context, id string) (domrun.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return domrun.Summary{}, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

func (m *memSummaries) List(_ context.Context) ([]domrun.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domrun.Summary, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, s)
	}
	return out, nil
}

type memDefinitions struct {
	mu   sync.Mutex
	rows map[string][]partial.Definition
	err  error
}

func newMemDefinitions() *memDefinitions {
	return &memDefinitions{rows: make(map[string][]partial.Definition)}
}

func (m *memDefinitions) Save(_ context.Context, runID string, def partial.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows[runID] = append(m.rows[runID], def)
	return nil
}

func (m *memDefinitions) List(_ context.Context, runID string) ([]partial.Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]partial.Definition(nil), m.rows[runID]...), nil
}

func familyKB(t *testing.T) *kb.KB {
	t.Helper()
	k, err := kb.LoadFile("../../kb/testdata/family.yaml")
	require.NoError(t, err)
	return k
}

func testConfig() Config {
	cfg := learner.DefaultConfig()
	cfg.MaxExpansions = 200
	return Config{Learner: cfg, MaxRoleDepth: 2, Workers: 2}
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := New(familyKB(t), testConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func ptr[T any](v T) *T { return &v }

func fatherRequest() Request {
	return Request{
		Positives:             []string{"stefan", "markus"},
		Negatives:             []string{"heinz", "anna", "gabi", "bernd"},
		StopOnFirstDefinition: ptr(true),
	}
}

func waitRun(t *testing.T, s *Service, id string) domrun.Summary {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sum, err := s.Wait(ctx, id)
	require.NoError(t, err)
	return sum
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, testConfig())
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	cfg := testConfig()
	cfg.Learner.Capacity = 0
	_, err = New(familyKB(t), cfg)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	cfg = testConfig()
	cfg.Heuristic = "nope"
	_, err = New(familyKB(t), cfg)
	require.Error(t, err)
}

func TestStart_SingleFindsFather(t *testing.T) {
	s := newTestService(t)

	started, err := s.Start(context.Background(), fatherRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, started.ID)
	assert.Equal(t, domrun.ModeSingle, started.Mode)
	assert.Equal(t, []string{"markus", "stefan"}, started.Positives)

	sum := waitRun(t, s, started.ID)
	assert.Equal(t, string(learner.StateCompleted), sum.State)
	assert.Equal(t, string(learner.TerminationDefinition), sum.Termination)
	assert.True(t, sum.Finished())
	assert.Empty(t, sum.Error)
	require.NotEmpty(t, sum.Best)
	assert.InDelta(t, 1.0, sum.Best[0].Accuracy, 1e-9, "best: %s", sum.Best[0].Concept)
	assert.Zero(t, sum.Best[0].CoveredNegatives)
	assert.Positive(t, sum.Definitions)

	res, err := s.Definitions(context.Background(), started.ID, 0)
	require.NoError(t, err)
	assert.True(t, res.Complete())

	tree, err := s.Tree(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Contains(t, tree, "TOP")
}

func TestStart_Validation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown individual", Request{Positives: []string{"zorro"}}, domain.ErrUnknownIndividual},
		{"no positives", Request{Negatives: []string{"heinz"}}, domain.ErrInvalidInput},
		{"bad mode", Request{Positives: []string{"stefan"}, Mode: "swarm"}, domain.ErrInvalidInput},
		{"bad seed", Request{Positives: []string{"stefan"}, Seed: "Male AND ("}, domain.ErrInvalidInput},
		{"bad noise", Request{Positives: []string{"stefan"}, NoisePercentage: ptr(150.0)}, domain.ErrInvalidConfig},
		{"negative budget", Request{Positives: []string{"stefan"}, TimeBudget: ptr(-time.Second)}, domain.ErrInvalidConfig},
		{"negative workers", Request{Positives: []string{"stefan"}, Workers: -1}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Start(ctx, tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}

	runs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStart_Partitioned(t *testing.T) {
	s := newTestService(t)

	req := Request{
		Positives:     []string{"stefan", "markus", "claudia", "gabi", "oma"},
		Negatives:     []string{"heinz", "michelle", "bernd"},
		Mode:          domrun.ModePartitioned,
		MaxExpansions: ptr(30),
	}
	started, err := s.Start(context.Background(), req)
	require.NoError(t, err)

	sum := waitRun(t, s, started.ID)
	assert.Equal(t, domrun.ModePartitioned, sum.Mode)
	assert.Empty(t, sum.Error)
	require.NotEmpty(t, sum.Best)
	for _, h := range sum.Best {
		assert.Zero(t, h.CoveredNegatives, h.Concept)
	}

	res, err := s.Definitions(context.Background(), started.ID, 0)
	require.NoError(t, err)
	assert.True(t, res.Complete(), "uncovered: %v", res.Uncovered.Sorted())

	tree, err := s.Tree(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Contains(t, tree, "# worker 0")
	assert.Contains(t, tree, "# worker 1")
}

func TestPersistence_SurvivesRestart(t *testing.T) {
	sums, defs := newMemSummaries(), newMemDefinitions()
	first := newTestService(t, WithSummaryRepository(sums), WithDefinitionRepository(defs))

	started, err := first.Start(context.Background(), fatherRequest())
	require.NoError(t, err)
	want := waitRun(t, first, started.ID)
	require.NoError(t, first.Shutdown(context.Background()))

	second := newTestService(t, WithSummaryRepository(sums), WithDefinitionRepository(defs))
	got, err := second.Get(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Equal(t, want.State, got.State)
	assert.Equal(t, want.Termination, got.Termination)
	assert.Equal(t, want.Positives, got.Positives)

	res, err := second.Definitions(context.Background(), started.ID, 0)
	require.NoError(t, err)
	assert.True(t, res.Complete())

	runs, err := second.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, started.ID, runs[0].ID)

	_, err = second.Tree(context.Background(), started.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDefinitionPersistFailureFailsRun(t *testing.T) {
	defs := newMemDefinitions()
	defs.err = fmt.Errorf("connection refused")
	s := newTestService(t, WithDefinitionRepository(defs))

	started, err := s.Start(context.Background(), fatherRequest())
	require.NoError(t, err)
	sum := waitRun(t, s, started.ID)
	assert.Contains(t, sum.Error, "connection refused")
}

func TestUnknownRun(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, s.Stop(ctx, "missing"), domain.ErrNotFound)
	_, err = s.Definitions(ctx, "missing", 0)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Wait(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStop_FinishedRunIsNoop(t *testing.T) {
	s := newTestService(t)
	started, err := s.Start(context.Background(), fatherRequest())
	require.NoError(t, err)
	before := waitRun(t, s, started.ID)

	require.NoError(t, s.Stop(context.Background(), started.ID))
	after, err := s.Get(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Equal(t, before.State, after.State)
}

func TestStop_ImmediatelyAfterStart(t *testing.T) {
	s := newTestService(t)
	req := fatherRequest()
	req.StopOnFirstDefinition = nil

	started, err := s.Start(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, s.Stop(context.Background(), started.ID))

	sum := waitRun(t, s, started.ID)
	assert.Equal(t, string(learner.StateStopped), sum.State)
	assert.Equal(t, string(learner.TerminationStopRequested), sum.Termination)
	assert.Empty(t, sum.Error)
}

type countingScorer struct {
	learner.Scorer
	mu   sync.Mutex
	full int
}

func (c *countingScorer) FullScore(ctx context.Context, concept domain.Concept) (score.Detail, error) {
	c.mu.Lock()
	c.full++
	c.mu.Unlock()
	return c.Scorer.FullScore(ctx, concept)
}

func TestGet_FinishedPartitionedRunIsNotRescored(t *testing.T) {
	s := newTestService(t)
	started, err := s.Start(context.Background(), Request{
		Positives:     []string{"stefan", "markus", "claudia", "gabi", "oma"},
		Negatives:     []string{"heinz", "michelle", "bernd"},
		Mode:          domrun.ModePartitioned,
		MaxExpansions: ptr(30),
	})
	require.NoError(t, err)
	final := waitRun(t, s, started.ID)
	require.NotEmpty(t, final.Best)

	h, ok := s.lookup(started.ID)
	require.True(t, ok)
	counter := &countingScorer{Scorer: h.scorer}
	h.scorer = counter

	for range 3 {
		got, err := s.Get(context.Background(), started.ID)
		require.NoError(t, err)
		assert.Equal(t, final, got)
	}
	_, err = s.List(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counter.full)
}

func TestList_MostRecentFirst(t *testing.T) {
	s := newTestService(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var (
		mu   sync.Mutex
		tick int
		ids  = []string{"run-a", "run-b"}
		next int
	)
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	s.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[next]
		next++
		return id
	}

	for range ids {
		started, err := s.Start(context.Background(), fatherRequest())
		require.NoError(t, err)
		waitRun(t, s, started.ID)
	}

	runs, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, "run-a", runs[1].ID)
}

func TestReduce(t *testing.T) {
	s := newTestService(t)
	items := []ReduceItem{
		{Concept: "Male", Covered: []string{"stefan", "markus"}},
		{Concept: "(EXISTS hasChild.TOP)", Covered: []string{"stefan", "claudia"}},
		{Concept: "Female", Covered: []string{"claudia"}},
	}

	res, err := s.Reduce(items, []string{"stefan", "markus", "claudia"}, 0, "")
	require.NoError(t, err)
	require.Len(t, res.Selected, 2)
	assert.Equal(t, "Male", res.Selected[0].Definition.Concept().String())
	assert.Equal(t, "(EXISTS hasChild.TOP)", res.Selected[1].Definition.Concept().String())
	assert.True(t, res.Complete())

	_, err = s.Reduce(items, nil, 0, "alphabetical")
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = s.Reduce([]ReduceItem{{Concept: "AND"}}, nil, 0, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Reduce(items, nil, -1, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestShutdown_StopsRuns(t *testing.T) {
	s := newTestService(t)
	req := fatherRequest()
	req.StopOnFirstDefinition = ptr(false)
	req.MaxExpansions = ptr(0)
	req.TimeBudget = ptr(time.Minute)

	started, err := s.Start(context.Background(), req)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	sum, err := s.Get(context.Background(), started.ID)
	require.NoError(t, err)
	assert.True(t, sum.Finished())
	assert.True(t, strings.Contains(sum.State, "stopped") || strings.Contains(sum.State, "completed"), sum.State)
}
