package chi

import (
	"time"

	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
	"github.com/kailas-cloud/celearn/internal/usecase/reducer"
	runuc "github.com/kailas-cloud/celearn/internal/usecase/run"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeUnauthorized     = "unauthorized"
	CodeNotFound         = "not_found"
	CodeInvalidState     = "invalid_state"
	CodeInternalError    = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StartRunRequest is the body of POST /runs.
type StartRunRequest struct {
	Positives             []string `json:"positives"`
	Negatives             []string `json:"negatives"`
	Seed                  string   `json:"seed,omitempty"`
	Mode                  string   `json:"mode,omitempty"`
	Workers               int      `json:"workers,omitempty"`
	TimeBudgetSec         *float64 `json:"time_budget_sec,omitempty"`
	NoisePercentage       *float64 `json:"noise_percentage,omitempty"`
	StopOnFirstDefinition *bool    `json:"stop_on_first_definition,omitempty"`
	MaxResults            *int     `json:"max_results,omitempty"`
	MaxExpansions         *int     `json:"max_expansions,omitempty"`
	Heuristic             string   `json:"heuristic,omitempty"`
}

func (r StartRunRequest) toDomain() runuc.Request {
	req := runuc.Request{
		Positives:             r.Positives,
		Negatives:             r.Negatives,
		Seed:                  r.Seed,
		Mode:                  domrun.Mode(r.Mode),
		Workers:               r.Workers,
		NoisePercentage:       r.NoisePercentage,
		StopOnFirstDefinition: r.StopOnFirstDefinition,
		MaxResults:            r.MaxResults,
		MaxExpansions:         r.MaxExpansions,
		Heuristic:             r.Heuristic,
	}
	if r.TimeBudgetSec != nil {
		d := time.Duration(*r.TimeBudgetSec * float64(time.Second))
		req.TimeBudget = &d
	}
	return req
}

// HypothesisResponse is one ranked hypothesis.
type HypothesisResponse struct {
	Concept          string  `json:"concept"`
	Length           int     `json:"length"`
	Accuracy         float64 `json:"accuracy"`
	CoveredPositives int     `json:"covered_positives"`
	CoveredNegatives int     `json:"covered_negatives"`
}

// RunResponse describes a run.
type RunResponse struct {
	ID          string               `json:"id"`
	Mode        string               `json:"mode"`
	State       string               `json:"state"`
	Termination string               `json:"termination,omitempty"`
	Error       string               `json:"error,omitempty"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  *time.Time           `json:"finished_at,omitempty"`
	Expansions  int                  `json:"expansions"`
	Nodes       int                  `json:"nodes"`
	Definitions int                  `json:"definitions"`
	Best        []HypothesisResponse `json:"best"`
}

// RunListResponse is the body of GET /runs.
type RunListResponse struct {
	Items []RunResponse `json:"items"`
}

func runToResponse(s domrun.Summary) RunResponse {
	resp := RunResponse{
		ID:          s.ID,
		Mode:        string(s.Mode),
		State:       s.State,
		Termination: s.Termination,
		Error:       s.Error,
		StartedAt:   s.StartedAt.UTC(),
		Expansions:  s.Expansions,
		Nodes:       s.Nodes,
		Definitions: s.Definitions,
		Best:        make([]HypothesisResponse, len(s.Best)),
	}
	if s.Finished() {
		t := s.FinishedAt.UTC()
		resp.FinishedAt = &t
	}
	for i, h := range s.Best {
		resp.Best[i] = HypothesisResponse(h)
	}
	return resp
}

// ReduceItem is a caller-supplied partial definition.
type ReduceItem struct {
	Concept string   `json:"concept"`
	Covered []string `json:"covered"`
}

// ReduceRequest is the body of POST /reduce.
type ReduceRequest struct {
	Items     []ReduceItem `json:"items"`
	Targets   []string     `json:"targets"`
	Allowance int          `json:"allowance"`
	SortKey   string       `json:"sort_key,omitempty"`
}

// DefinitionResponse is one selected partial definition.
type DefinitionResponse struct {
	ID         string   `json:"id"`
	Concept    string   `json:"concept"`
	Length     int      `json:"length"`
	Covered    []string `json:"covered"`
	Generation uint64   `json:"generation"`
	Marginal   int      `json:"marginal"`
}

// ReductionResponse is the result of a reduction.
type ReductionResponse struct {
	Definitions []DefinitionResponse `json:"definitions"`
	Uncovered   []string             `json:"uncovered"`
	Complete    bool                 `json:"complete"`
}

func reductionToResponse(res reducer.Result) ReductionResponse {
	resp := ReductionResponse{
		Definitions: make([]DefinitionResponse, len(res.Selected)),
		Uncovered:   res.Uncovered.Sorted(),
		Complete:    res.Complete(),
	}
	for i, sel := range res.Selected {
		d := sel.Definition
		resp.Definitions[i] = DefinitionResponse{
			ID:         d.ID().String(),
			Concept:    d.Concept().String(),
			Length:     d.Concept().Length(),
			Covered:    d.CoveredPositives().Sorted(),
			Generation: d.Generation(),
			Marginal:   sel.Marginal,
		}
	}
	return resp
}

// KBResponse is the body of GET /kb.
type KBResponse struct {
	Classes     int      `json:"classes"`
	Roles       int      `json:"roles"`
	Individuals int      `json:"individuals"`
	RoleNames   []string `json:"role_names"`
	TopClasses  []string `json:"top_classes"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
