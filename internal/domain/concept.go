package domain

import "strings"

// Concept is an opaque class expression owned by the reasoning layer.
// String must return a canonical form: two concepts are structurally
// identical iff their strings are equal.
type Concept interface {
	String() string
	Length() int
}

// SameConcept reports whether a and b are structurally identical.
func SameConcept(a, b Concept) bool {
	return a.String() == b.String()
}

// CompareConcepts is the canonical total order on concepts: shorter first,
// then lexicographic on the canonical string.
func CompareConcepts(a, b Concept) int {
	if la, lb := a.Length(), b.Length(); la != lb {
		if la < lb {
			return -1
		}
		return 1
	}
	return strings.Compare(a.String(), b.String())
}

// CompareCompleteness ranks by number of covered positives (more first),
// then by the canonical concept order. Negative means a ranks ahead of b.
func CompareCompleteness(posA int, a Concept, posB int, b Concept) int {
	if posA != posB {
		if posA > posB {
			return -1
		}
		return 1
	}
	return CompareConcepts(a, b)
}

// Expression is a concept known only by its canonical text and length.
// It is what the persistence layer hands back when reading stored concepts.
type Expression struct {
	Text string
	Len  int
}

// NewExpression captures the canonical form of c.
func NewExpression(c Concept) Expression {
	return Expression{Text: c.String(), Len: c.Length()}
}

func (e Expression) String() string { return e.Text }

// Length returns the stored concept length.
func (e Expression) Length() int { return e.Len }
