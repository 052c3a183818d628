package learner

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/celearn/internal/domain"
)

// State is the engine lifecycle state.
type State string

// Engine states.
const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateStopped   State = "stopped"
	StateCompleted State = "completed"
)

// Termination names why a run ended.
type Termination string

// Termination reasons.
const (
	TerminationNone          Termination = ""
	TerminationFrontierEmpty Termination = "frontier_empty"
	TerminationTimeBudget    Termination = "time_budget"
	TerminationMaxExpansions Termination = "max_expansions"
	TerminationDefinition    Termination = "definition_found"
	TerminationStopRequested Termination = "stop_requested"
	TerminationFailed        Termination = "collaborator_error"
)

// Collaborator operations reported in CollaboratorError.
const (
	OpRefine    = "refine"
	OpScore     = "score"
	OpFullScore = "full_score"
)

// CollaboratorError wraps a failure of the refinement operator or the scorer.
type CollaboratorError struct {
	Op      string
	Concept string
	Err     error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Concept, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// IsCollaboratorError reports whether err came from a collaborator.
func IsCollaboratorError(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}

func invalidState(op string, s State) error {
	return fmt.Errorf("%s while %s: %w", op, s, domain.ErrInvalidState)
}
