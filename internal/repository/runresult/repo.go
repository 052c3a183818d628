// Package runresult persists run summaries.
package runresult

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/celearn/internal/db"
	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/run"
)

// store is the consumer interface for run summaries.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores each summary as a JSON string.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a repository; ttl <= 0 keeps summaries forever.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Save writes (or overwrites) the summary.
func (r *Repo) Save(ctx context.Context, s run.Summary) error {
	data, err := json.Marshal(summaryToRow(s))
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, resultKey(s.ID), data, r.ttl); err != nil {
		return fmt.Errorf("set run summary %s: %w", s.ID, err)
	}
	return nil
}

// Get reads a summary; a missing one yields domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (run.Summary, error) {
	data, err := r.store.Get(ctx, resultKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return run.Summary{}, domain.ErrNotFound
		}
		return run.Summary{}, fmt.Errorf("get run summary %s: %w", id, err)
	}
	var row summaryRow
	if err := json.Unmarshal(data, &row); err != nil {
		return run.Summary{}, fmt.Errorf("unmarshal run summary %s: %w", id, err)
	}
	return summaryFromRow(row), nil
}

// List returns every stored summary, most recent first.
func (r *Repo) List(ctx context.Context) ([]run.Summary, error) {
	keys, err := r.store.Scan(ctx, resultKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan run summaries: %w", err)
	}
	out := make([]run.Summary, 0, len(keys))
	for _, key := range keys {
		s, err := r.Get(ctx, idFromKey(key))
		if errors.Is(err, domain.ErrNotFound) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b run.Summary) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return out, nil
}

// Key pattern: celearn:run:{id}:result

func resultKey(id string) string {
	return fmt.Sprintf("%srun:%s:result", domain.KeyPrefix, id)
}

func idFromKey(key string) string {
	id := strings.TrimPrefix(key, domain.KeyPrefix+"run:")
	return strings.TrimSuffix(id, ":result")
}
