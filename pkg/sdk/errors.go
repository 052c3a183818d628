package celearn

import "github.com/kailas-cloud/celearn/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrInvalidInput      = domain.ErrInvalidInput
	ErrInvalidConfig     = domain.ErrInvalidConfig
	ErrInvalidState      = domain.ErrInvalidState
	ErrUnknownIndividual = domain.ErrUnknownIndividual
)
