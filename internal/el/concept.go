// Package el implements EL class expressions as description trees:
// a conjunction of named classes and existential restrictions.
package el

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/celearn/internal/domain"
)

// TopName is the canonical form of the universal concept.
const TopName = "TOP"

// Concept is an immutable EL description tree. The zero value is TOP.
type Concept struct {
	classes []string
	exists  []Restriction
}

// Restriction is an existential restriction EXISTS role.filler.
type Restriction struct {
	Role   string
	Filler Concept
}

var _ domain.Concept = Concept{}

// Top returns the universal concept.
func Top() Concept { return Concept{} }

// Class returns the concept consisting of one named class.
func Class(name string) Concept { return Concept{classes: []string{name}} }

// Exists returns EXISTS role.filler.
func Exists(role string, filler Concept) Concept {
	return Concept{exists: []Restriction{{Role: role, Filler: filler}}}
}

// And returns the normalized conjunction of the given concepts.
func And(cs ...Concept) Concept {
	var out Concept
	for _, c := range cs {
		out.classes = append(out.classes, c.classes...)
		out.exists = append(out.exists, c.exists...)
	}
	return out.normalize()
}

// Classes returns the named conjuncts in canonical order.
func (c Concept) Classes() []string { return slices.Clone(c.classes) }

// Restrictions returns the existential conjuncts in canonical order.
func (c Concept) Restrictions() []Restriction { return slices.Clone(c.exists) }

// IsTop reports whether c has no conjuncts.
func (c Concept) IsTop() bool { return len(c.classes) == 0 && len(c.exists) == 0 }

func (c Concept) hasRole(role string) bool {
	for _, r := range c.exists {
		if r.Role == role {
			return true
		}
	}
	return false
}

func (c Concept) conjuncts() int { return len(c.classes) + len(c.exists) }

// Length is the DL length: each class or TOP counts 1, each restriction
// 2 plus its filler, each additional conjunct 1.
func (c Concept) Length() int {
	if c.IsTop() {
		return 1
	}
	n := len(c.classes)
	for _, r := range c.exists {
		n += 2 + r.Filler.Length()
	}
	return n + c.conjuncts() - 1
}

func (c Concept) String() string {
	if c.IsTop() {
		return TopName
	}
	parts := make([]string, 0, c.conjuncts())
	parts = append(parts, c.classes...)
	for _, r := range c.exists {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " AND ")
}

func (r Restriction) String() string {
	filler := r.Filler.String()
	if r.Filler.conjuncts() > 1 {
		filler = "(" + filler + ")"
	}
	return "(EXISTS " + r.Role + "." + filler + ")"
}

// normalize sorts and de-duplicates conjuncts.
func (c Concept) normalize() Concept {
	classes := slices.Clone(c.classes)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	exists := make([]Restriction, 0, len(c.exists))
	for _, r := range c.exists {
		exists = append(exists, Restriction{Role: r.Role, Filler: r.Filler.normalize()})
	}
	slices.SortFunc(exists, func(a, b Restriction) int {
		return strings.Compare(a.String(), b.String())
	})
	exists = slices.CompactFunc(exists, func(a, b Restriction) bool {
		return a.String() == b.String()
	})

	if len(classes) == 0 {
		classes = nil
	}
	if len(exists) == 0 {
		exists = nil
	}
	return Concept{classes: classes, exists: exists}
}

// withClasses returns a normalized copy with the class list replaced.
func (c Concept) withClasses(classes []string) Concept {
	return Concept{classes: classes, exists: c.exists}.normalize()
}

// withRestriction returns a normalized copy with restriction i replaced.
func (c Concept) withRestriction(i int, r Restriction) Concept {
	exists := slices.Clone(c.exists)
	exists[i] = r
	return Concept{classes: c.classes, exists: exists}.normalize()
}

// FromConcept converts any domain concept to an EL concept, parsing its
// canonical string when it is not already one.
func FromConcept(c domain.Concept) (Concept, error) {
	if ec, ok := c.(Concept); ok {
		return ec, nil
	}
	return Parse(c.String())
}
