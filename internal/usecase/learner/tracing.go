package learner

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (e *Engine) startSpan(ctx context.Context) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "learner.run",
		trace.WithAttributes(
			attribute.String("learner.engine", e.name),
			attribute.String("learner.seed", e.seed.String()),
			attribute.String("learner.time_budget", e.cfg.TimeBudget.String()),
			attribute.Float64("learner.noise", e.cfg.Noise()),
			attribute.Int("learner.capacity", e.cfg.Capacity),
			attribute.Bool("learner.stop_on_first_definition", e.cfg.StopOnFirstDefinition),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func endSpan(span trace.Span, st Status) {
	span.SetAttributes(
		attribute.String("learner.termination", string(st.Termination)),
		attribute.Int("learner.expansions", st.Stats.Expansions),
		attribute.Int("learner.nodes", st.Stats.Nodes),
		attribute.Int("learner.full_scores", st.Stats.FullScores),
	)
	if st.Err != nil {
		span.RecordError(st.Err)
		span.SetStatus(codes.Error, st.Err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
