package domain

import (
	"errors"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed request or argument.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig signals configuration values that cannot start a search.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidState signals an operation not allowed in the current lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrAlreadyScored signals a second attempt to score a search tree node.
	ErrAlreadyScored = errors.New("node already scored")
	// ErrUnknownIndividual signals an example that is not part of the knowledge base.
	ErrUnknownIndividual = errors.New("unknown individual")
	// ErrUnsupportedConcept signals a concept the collaborator cannot interpret.
	ErrUnsupportedConcept = errors.New("unsupported concept")
)
