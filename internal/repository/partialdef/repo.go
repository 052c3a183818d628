// Package partialdef persists the partial definitions found by a run.
package partialdef

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/partial"
)

// store is the consumer interface for partial definitions.
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HLen(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	Del(ctx context.Context, key string) error
}

// Repo stores one hash per run: field = canonical concept, value = JSON row.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a repository. A positive ttl expires a run's hash after its
// first write.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

type row struct {
	ID         string   `json:"id"`
	Concept    string   `json:"concept"`
	Length     int      `json:"length"`
	Covered    []string `json:"covered"`
	Generation uint64   `json:"generation"`
}

// Save writes def under runID.
func (r *Repo) Save(ctx context.Context, runID string, def partial.Definition) error {
	data, err := json.Marshal(row{
		ID:         def.ID().String(),
		Concept:    def.Concept().String(),
		Length:     def.Concept().Length(),
		Covered:    def.CoveredPositives().Sorted(),
		Generation: def.Generation(),
	})
	if err != nil {
		return fmt.Errorf("marshal partial definition: %w", err)
	}

	key := hashKey(runID)
	if err := r.store.HSet(ctx, key, map[string]string{def.Concept().String(): string(data)}); err != nil {
		return fmt.Errorf("hset partial definition %s: %w", runID, err)
	}
	if r.ttl > 0 {
		if err := r.store.Expire(ctx, key, r.ttl, true); err != nil {
			return fmt.Errorf("expire partial definitions %s: %w", runID, err)
		}
	}
	return nil
}

// List returns the stored definitions of runID in generation order.
// Concepts come back as domain.Expression values.
func (r *Repo) List(ctx context.Context, runID string) ([]partial.Definition, error) {
	m, err := r.store.HGetAll(ctx, hashKey(runID))
	if err != nil {
		return nil, fmt.Errorf("hgetall partial definitions %s: %w", runID, err)
	}

	defs := make([]partial.Definition, 0, len(m))
	for field, raw := range m {
		var rw row
		if err := json.Unmarshal([]byte(raw), &rw); err != nil {
			return nil, fmt.Errorf("unmarshal partial definition %q: %w", field, err)
		}
		id, err := ulid.Parse(rw.ID)
		if err != nil {
			return nil, fmt.Errorf("parse partial definition id %q: %w", rw.ID, err)
		}
		c := domain.Expression{Text: rw.Concept, Len: rw.Length}
		defs = append(defs, partial.NewDefinition(id, c, domain.NewExampleSet(rw.Covered...), rw.Generation))
	}
	slices.SortFunc(defs, partial.ByGeneration)
	return defs, nil
}

// Count returns the number of stored definitions of runID.
func (r *Repo) Count(ctx context.Context, runID string) (int, error) {
	n, err := r.store.HLen(ctx, hashKey(runID))
	if err != nil {
		return 0, fmt.Errorf("hlen partial definitions %s: %w", runID, err)
	}
	return int(n), nil
}

// Delete removes all definitions of runID.
func (r *Repo) Delete(ctx context.Context, runID string) error {
	if err := r.store.Del(ctx, hashKey(runID)); err != nil {
		return fmt.Errorf("del partial definitions %s: %w", runID, err)
	}
	return nil
}

// Key pattern: celearn:run:{id}:partials

func hashKey(runID string) string {
	return fmt.Sprintf("%srun:%s:partials", domain.KeyPrefix, runID)
}
