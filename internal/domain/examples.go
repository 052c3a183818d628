package domain

import "sort"

// ExampleSet is a set of example individuals identified by name.
type ExampleSet map[string]struct{}

// NewExampleSet builds a set from ids; duplicates collapse.
func NewExampleSet(ids ...string) ExampleSet {
	s := make(ExampleSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Len returns the number of examples.
func (s ExampleSet) Len() int { return len(s) }

// Has reports membership.
func (s ExampleSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id.
func (s ExampleSet) Add(id string) { s[id] = struct{}{} }

// Clone returns an independent copy.
func (s ExampleSet) Clone() ExampleSet {
	out := make(ExampleSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending order.
func (s ExampleSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IntersectLen counts members shared with other.
func (s ExampleSet) IntersectLen(other ExampleSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for id := range small {
		if large.Has(id) {
			n++
		}
	}
	return n
}

// RemoveAll deletes every member of other from s and returns how many were removed.
func (s ExampleSet) RemoveAll(other ExampleSet) int {
	removed := 0
	for id := range other {
		if s.Has(id) {
			delete(s, id)
			removed++
		}
	}
	return removed
}

// Union returns a new set holding members of both sets.
func (s ExampleSet) Union(other ExampleSet) ExampleSet {
	out := s.Clone()
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Partition splits the set into n slices of near-equal size, assigning
// members round-robin in sorted order so the split is deterministic.
func (s ExampleSet) Partition(n int) []ExampleSet {
	if n < 1 {
		n = 1
	}
	parts := make([]ExampleSet, n)
	for i := range parts {
		parts[i] = make(ExampleSet)
	}
	for i, id := range s.Sorted() {
		parts[i%n].Add(id)
	}
	return parts
}
