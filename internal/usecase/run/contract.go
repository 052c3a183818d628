package run

import (
	"context"

	"github.com/kailas-cloud/celearn/internal/domain/partial"
	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
)

// SummaryRepository persists run summaries.
type SummaryRepository interface {
	Save(ctx context.Context, s domrun.Summary) error
	Get(ctx context.Context, id string) (domrun.Summary, error)
	List(ctx context.Context) ([]domrun.Summary, error)
}

// DefinitionRepository persists partial definitions per run.
type DefinitionRepository interface {
	Save(ctx context.Context, runID string, def partial.Definition) error
	List(ctx context.Context, runID string) ([]partial.Definition, error)
}
