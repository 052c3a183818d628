package learner

import (
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/celearn/internal/domain/heuristic"
)

// Option configures an Engine.
type Option func(*Engine)

// WithHeuristic replaces the default node ordering.
func WithHeuristic(order heuristic.Ordering) Option {
	return func(e *Engine) {
		if order != nil {
			e.order = order
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the tracer used for run spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithDefinitionSink forwards every viable node that covers some positives
// and no negatives.
func WithDefinitionSink(sink DefinitionSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithClock overrides the wall clock used for the time budget.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithName labels logs and spans of this engine (e.g. run id or worker).
func WithName(name string) Option {
	return func(e *Engine) {
		e.name = name
	}
}
