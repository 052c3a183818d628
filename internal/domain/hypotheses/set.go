// Package hypotheses keeps the bounded set of best evaluated descriptions.
package hypotheses

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/score"
)

// Set is an ordered, capacity-bounded set of distinct evaluated descriptions,
// best first. Not safe for concurrent use.
type Set struct {
	capacity int
	items    []score.EvaluatedDescription
	index    map[string]struct{}
}

// New creates a set holding at most capacity descriptions.
func New(capacity int) (*Set, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d: %w", capacity, domain.ErrInvalidConfig)
	}
	return &Set{
		capacity: capacity,
		index:    make(map[string]struct{}, capacity+1),
	}, nil
}

// Add inserts ed and evicts the worst member when the capacity is exceeded.
// It reports whether ed is retained afterwards.
func (s *Set) Add(ed score.EvaluatedDescription) bool {
	key := ed.Concept().String()
	if _, dup := s.index[key]; dup {
		return false
	}

	pos := sort.Search(len(s.items), func(i int) bool {
		return score.Compare(ed, s.items[i]) < 0
	})
	if pos >= s.capacity {
		return false
	}

	s.items = append(s.items, score.EvaluatedDescription{})
	copy(s.items[pos+1:], s.items[pos:])
	s.items[pos] = ed
	s.index[key] = struct{}{}

	if len(s.items) > s.capacity {
		evicted := s.items[len(s.items)-1]
		s.items = s.items[:len(s.items)-1]
		delete(s.index, evicted.Concept().String())
	}
	return true
}

// Best returns the top description.
func (s *Set) Best() (score.EvaluatedDescription, bool) {
	if len(s.items) == 0 {
		return score.EvaluatedDescription{}, false
	}
	return s.items[0], true
}

// Worst returns the lowest-ranked retained description.
func (s *Set) Worst() (score.EvaluatedDescription, bool) {
	if len(s.items) == 0 {
		return score.EvaluatedDescription{}, false
	}
	return s.items[len(s.items)-1], true
}

// Len returns the number of retained descriptions.
func (s *Set) Len() int { return len(s.items) }

// Cap returns the configured capacity.
func (s *Set) Cap() int { return s.capacity }

// Full reports whether the set is at capacity.
func (s *Set) Full() bool { return len(s.items) >= s.capacity }

// Items returns a copy of the retained descriptions, best first.
func (s *Set) Items() []score.EvaluatedDescription {
	out := make([]score.EvaluatedDescription, len(s.items))
	copy(out, s.items)
	return out
}

// Clear removes every description.
func (s *Set) Clear() {
	s.items = nil
	s.index = make(map[string]struct{}, s.capacity+1)
}
