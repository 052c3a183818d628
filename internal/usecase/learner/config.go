package learner

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/celearn/internal/domain"
)

// Config holds the search parameters of one engine.
type Config struct {
	TimeBudget            time.Duration
	NoisePercentage       float64
	StopOnFirstDefinition bool
	Capacity              int
	MaxExpansions         int // 0 = unlimited
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		TimeBudget: 10 * time.Second,
		Capacity:   10,
	}
}

// Noise converts the noise percentage into a 0..1 tolerance.
func (c Config) Noise() float64 {
	return c.NoisePercentage / 100
}

// Validate rejects values that cannot start a search.
func (c Config) Validate() error {
	if c.TimeBudget < 0 {
		return fmt.Errorf("time budget must not be negative, got %s: %w", c.TimeBudget, domain.ErrInvalidConfig)
	}
	if c.NoisePercentage < 0 || c.NoisePercentage > 100 {
		return fmt.Errorf("noise percentage must be within 0..100, got %g: %w", c.NoisePercentage, domain.ErrInvalidConfig)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("best hypotheses capacity must be positive, got %d: %w", c.Capacity, domain.ErrInvalidConfig)
	}
	if c.MaxExpansions < 0 {
		return fmt.Errorf("max expansions must not be negative, got %d: %w", c.MaxExpansions, domain.ErrInvalidConfig)
	}
	return nil
}
