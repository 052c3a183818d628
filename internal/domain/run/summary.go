// Package run describes learning runs as seen from outside the engine.
package run

import "time"

// Mode selects how a run searches.
type Mode string

// Run modes.
const (
	ModeSingle      Mode = "single"
	ModePartitioned Mode = "partitioned"
)

// Hypothesis is a retained description with its evaluation.
type Hypothesis struct {
	Concept          string
	Length           int
	Accuracy         float64
	CoveredPositives int
	CoveredNegatives int
}

// Summary is a point-in-time record of a run.
type Summary struct {
	ID          string
	Mode        Mode
	State       string
	Termination string
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Expansions  int
	Nodes       int
	Definitions int
	Positives   []string
	Best        []Hypothesis
}

// Finished reports whether the run has ended.
func (s Summary) Finished() bool { return !s.FinishedAt.IsZero() }
