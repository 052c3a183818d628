package run

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/celearn/internal/domain"
	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
	"github.com/kailas-cloud/celearn/internal/el"
	"github.com/kailas-cloud/celearn/internal/usecase/learner"
)

// Config holds the service defaults that requests may override.
type Config struct {
	Learner            learner.Config
	Heuristic          string
	MaxRoleDepth       int
	Workers            int
	UncoveredAllowance int
}

// Request starts a run. Nil overrides keep the service defaults.
type Request struct {
	Positives []string
	Negatives []string
	Seed      string
	Mode      domrun.Mode
	Workers   int

	TimeBudget            *time.Duration
	NoisePercentage       *float64
	StopOnFirstDefinition *bool
	MaxResults            *int
	MaxExpansions         *int
	Heuristic             string
}

func (s *Service) resolve(req Request) (learner.Config, string, el.Concept, error) {
	cfg := s.cfg.Learner
	if req.TimeBudget != nil {
		cfg.TimeBudget = *req.TimeBudget
	}
	if req.NoisePercentage != nil {
		cfg.NoisePercentage = *req.NoisePercentage
	}
	if req.StopOnFirstDefinition != nil {
		cfg.StopOnFirstDefinition = *req.StopOnFirstDefinition
	}
	if req.MaxResults != nil {
		cfg.Capacity = *req.MaxResults
	}
	if req.MaxExpansions != nil {
		cfg.MaxExpansions = *req.MaxExpansions
	}
	if err := cfg.Validate(); err != nil {
		return learner.Config{}, "", el.Concept{}, err
	}

	heuristicName := s.cfg.Heuristic
	if req.Heuristic != "" {
		heuristicName = req.Heuristic
	}

	seed := el.Top()
	if req.Seed != "" {
		c, err := el.Parse(req.Seed)
		if err != nil {
			return learner.Config{}, "", el.Concept{}, err
		}
		seed = c
	}

	switch req.Mode {
	case "", domrun.ModeSingle, domrun.ModePartitioned:
	default:
		return learner.Config{}, "", el.Concept{}, fmt.Errorf("unknown run mode %q: %w", req.Mode, domain.ErrInvalidInput)
	}
	if req.Workers < 0 {
		return learner.Config{}, "", el.Concept{}, fmt.Errorf("workers must not be negative: %w", domain.ErrInvalidInput)
	}
	return cfg, heuristicName, seed, nil
}
