package chi

import (
	"context"

	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
	"github.com/kailas-cloud/celearn/internal/kb"
	healthuc "github.com/kailas-cloud/celearn/internal/usecase/health"
	"github.com/kailas-cloud/celearn/internal/usecase/reducer"
	runuc "github.com/kailas-cloud/celearn/internal/usecase/run"
)

// RunService manages learning runs.
type RunService interface {
	KB() *kb.KB
	Start(ctx context.Context, req runuc.Request) (domrun.Summary, error)
	Get(ctx context.Context, id string) (domrun.Summary, error)
	List(ctx context.Context) ([]domrun.Summary, error)
	Stop(ctx context.Context, id string) error
	Tree(ctx context.Context, id string) (string, error)
	Definitions(ctx context.Context, id string, allowance int) (reducer.Result, error)
	Reduce(items []runuc.ReduceItem, targets []string, allowance int, sortKey string) (reducer.Result, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
