package runresult

import (
	"time"

	"github.com/kailas-cloud/celearn/internal/domain/run"
)

type hypothesisRow struct {
	Concept          string  `json:"concept"`
	Length           int     `json:"length"`
	Accuracy         float64 `json:"accuracy"`
	CoveredPositives int     `json:"covered_positives"`
	CoveredNegatives int     `json:"covered_negatives"`
}

type summaryRow struct {
	ID          string          `json:"id"`
	Mode        string          `json:"mode"`
	State       string          `json:"state"`
	Termination string          `json:"termination,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   int64           `json:"started_at"`
	FinishedAt  int64           `json:"finished_at,omitempty"`
	Expansions  int             `json:"expansions"`
	Nodes       int             `json:"nodes"`
	Definitions int             `json:"definitions"`
	Positives   []string        `json:"positives"`
	Best        []hypothesisRow `json:"best"`
}

func summaryToRow(s run.Summary) summaryRow {
	r := summaryRow{
		ID:          s.ID,
		Mode:        string(s.Mode),
		State:       s.State,
		Termination: s.Termination,
		Error:       s.Error,
		StartedAt:   s.StartedAt.UnixMilli(),
		Expansions:  s.Expansions,
		Nodes:       s.Nodes,
		Definitions: s.Definitions,
		Positives:   s.Positives,
		Best:        make([]hypothesisRow, len(s.Best)),
	}
	if s.Finished() {
		r.FinishedAt = s.FinishedAt.UnixMilli()
	}
	for i, h := range s.Best {
		r.Best[i] = hypothesisRow(h)
	}
	return r
}

func summaryFromRow(r summaryRow) run.Summary {
	s := run.Summary{
		ID:          r.ID,
		Mode:        run.Mode(r.Mode),
		State:       r.State,
		Termination: r.Termination,
		Error:       r.Error,
		StartedAt:   time.UnixMilli(r.StartedAt).UTC(),
		Expansions:  r.Expansions,
		Nodes:       r.Nodes,
		Definitions: r.Definitions,
		Positives:   r.Positives,
		Best:        make([]run.Hypothesis, len(r.Best)),
	}
	if r.FinishedAt != 0 {
		s.FinishedAt = time.UnixMilli(r.FinishedAt).UTC()
	}
	for i, h := range r.Best {
		s.Best[i] = run.Hypothesis(h)
	}
	return s
}
