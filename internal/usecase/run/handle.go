package run

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/partial"
	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
	"github.com/kailas-cloud/celearn/internal/domain/score"
	"github.com/kailas-cloud/celearn/internal/usecase/learner"
	"github.com/kailas-cloud/celearn/internal/usecase/partition"
)

// handle is an in-memory run. Exactly one of engine and search is set.
type handle struct {
	id        string
	mode      domrun.Mode
	startedAt time.Time
	positives domain.ExampleSet
	scorer    learner.Scorer

	engine *learner.Engine
	defs   *partial.Collection
	search *partition.Search

	done chan struct{}

	mu         sync.Mutex
	finishedAt time.Time
	err        error
	final      *domrun.Summary
}

func (h *handle) start(ctx context.Context) error {
	if h.engine != nil {
		return h.engine.Start(ctx)
	}
	return h.search.Start(ctx)
}

func (h *handle) stop() {
	if h.engine != nil {
		h.engine.Stop()
		return
	}
	h.search.Stop()
}

func (h *handle) finish(at time.Time, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finishedAt = at
	h.err = err
}

func (h *handle) result() (time.Time, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finishedAt, h.err
}

// settle stores the summary of a finished run; later reads reuse it.
func (h *handle) settle(sum domrun.Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.final = &sum
}

func (h *handle) settled() (domrun.Summary, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.final == nil {
		return domrun.Summary{}, false
	}
	return *h.final, true
}

func (h *handle) engines() []*learner.Engine {
	if h.engine != nil {
		return []*learner.Engine{h.engine}
	}
	return h.search.Engines()
}

func (h *handle) definitions() []partial.Definition {
	if h.engine != nil {
		return h.defs.Snapshot()
	}
	return h.search.Definitions()
}

func (h *handle) tree() string {
	if h.engine != nil {
		return h.engine.TreeString()
	}
	var b strings.Builder
	for i, eng := range h.search.Engines() {
		fmt.Fprintf(&b, "# worker %d\n", i)
		b.WriteString(eng.TreeString())
	}
	return b.String()
}

// state folds the worker states: running wins, then stopped, then completed.
func (h *handle) state() (learner.State, learner.Termination, learner.Stats) {
	var (
		state = learner.StateCompleted
		term  learner.Termination
		total learner.Stats
	)
	for i, eng := range h.engines() {
		st := eng.Status()
		switch {
		case st.State == learner.StateRunning || st.State == learner.StateIdle:
			state = learner.StateRunning
		case st.State == learner.StateStopped && state != learner.StateRunning:
			state = learner.StateStopped
		}
		if i == 0 {
			term = st.Termination
		} else if term != st.Termination {
			term = "mixed"
		}
		total.Expansions += st.Stats.Expansions
		total.Nodes += st.Stats.Nodes
		total.TooWeak += st.Stats.TooWeak
		total.FullScores += st.Stats.FullScores
		total.Definitions += st.Stats.Definitions
	}
	return state, term, total
}

func hypothesis(ed score.EvaluatedDescription) domrun.Hypothesis {
	return domrun.Hypothesis{
		Concept:          ed.Concept().String(),
		Length:           ed.Concept().Length(),
		Accuracy:         ed.Accuracy(),
		CoveredPositives: len(ed.Detail().CoveredPositives()),
		CoveredNegatives: ed.CoveredNegatives(),
	}
}

// definitionSink collects single-engine definitions; coverage there is
// already global.
type definitionSink struct {
	defs  *partial.Collection
	onAdd partition.DefinitionHook
}

func (k *definitionSink) AddDefinition(ctx context.Context, c domain.Concept, cov score.Coverage) error {
	def, added := k.defs.Add(c, cov.CoveredPositives())
	if !added || k.onAdd == nil {
		return nil
	}
	return k.onAdd(ctx, def)
}
