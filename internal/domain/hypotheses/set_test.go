package hypotheses

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/score"
)

func ed(text string, length int, acc float64) score.EvaluatedDescription {
	d := score.NewDetail(nil, nil, nil, nil, acc)
	return score.NewEvaluatedDescription(domain.Expression{Text: text, Len: length}, d)
}

func names(items []score.EvaluatedDescription) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Concept().String()
	}
	return out
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -3} {
		if _, err := New(c); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("New(%d) error = %v, want ErrInvalidConfig", c, err)
		}
	}
}

func TestAdd_OrdersBestFirst(t *testing.T) {
	s, _ := New(5)
	s.Add(ed("B", 1, 0.7))
	s.Add(ed("A", 1, 0.9))
	s.Add(ed("C AND D", 3, 0.9))
	s.Add(ed("E", 1, 0.9))

	want := []string{"A", "E", "C AND D", "B"}
	if got := names(s.Items()); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Items() = %v, want %v", got, want)
	}
}

func TestAdd_EvictsWorst(t *testing.T) {
	s, _ := New(2)
	s.Add(ed("A", 1, 0.5))
	s.Add(ed("B", 1, 0.6))
	if !s.Add(ed("C", 1, 0.7)) {
		t.Fatal("better description should be retained")
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	worst, _ := s.Worst()
	if worst.Concept().String() != "B" {
		t.Errorf("Worst() = %s, want B", worst.Concept())
	}
}

func TestAdd_WorseThanFullSetIsDropped(t *testing.T) {
	s, _ := New(2)
	s.Add(ed("A", 1, 0.8))
	s.Add(ed("B", 1, 0.9))
	if s.Add(ed("C", 1, 0.1)) {
		t.Error("worse description retained in full set")
	}
	if got := names(s.Items()); fmt.Sprint(got) != "[B A]" {
		t.Errorf("Items() = %v, want [B A]", got)
	}
}

func TestAdd_Duplicate(t *testing.T) {
	s, _ := New(3)
	s.Add(ed("A", 1, 0.8))
	if s.Add(ed("A", 1, 0.8)) {
		t.Error("duplicate concept added")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestAdd_KeepsTopK(t *testing.T) {
	const k = 7
	rng := rand.New(rand.NewSource(42))
	s, _ := New(k)
	var all []score.EvaluatedDescription
	for i := 0; i < 200; i++ {
		e := ed(fmt.Sprintf("C%03d", i), 1+rng.Intn(5), float64(rng.Intn(100))/100)
		all = append(all, e)
		s.Add(e)
		if s.Len() > k {
			t.Fatalf("Len() = %d exceeds capacity %d", s.Len(), k)
		}
	}
	sort.Slice(all, func(i, j int) bool { return score.Compare(all[i], all[j]) < 0 })

	want := names(all[:k])
	if got := names(s.Items()); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Items() = %v, want %v", got, want)
	}
}

func TestClear(t *testing.T) {
	s, _ := New(2)
	s.Add(ed("A", 1, 0.8))
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d", s.Len())
	}
	if _, ok := s.Best(); ok {
		t.Error("Best() on empty set returned true")
	}
	if !s.Add(ed("A", 1, 0.8)) {
		t.Error("concept should be insertable again after Clear")
	}
}
