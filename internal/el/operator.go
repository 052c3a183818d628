package el

import (
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/celearn/internal/domain"
)

// Vocabulary is the signature the operator refines over.
type Vocabulary interface {
	// TopClasses returns the classes without named superclasses.
	TopClasses() []string
	// SubClasses returns the direct subclasses of class.
	SubClasses(class string) []string
	// IsSubClassOf is reflexive and transitive.
	IsSubClassOf(sub, super string) bool
	Roles() []string
}

// Operator is a downward refinement operator for EL concepts. Each step
// adds a most general class, specializes a class to a direct subclass,
// adds EXISTS r.TOP for a role not yet restricted, or refines a filler. Restrictions are nested at most
// maxRoleDepth deep.
type Operator struct {
	vocab        Vocabulary
	maxRoleDepth int
}

// NewOperator creates an operator over vocab.
func NewOperator(vocab Vocabulary, maxRoleDepth int) (*Operator, error) {
	if vocab == nil {
		return nil, fmt.Errorf("vocabulary is required: %w", domain.ErrInvalidInput)
	}
	if maxRoleDepth < 0 {
		return nil, fmt.Errorf("max role depth must not be negative, got %d: %w", maxRoleDepth, domain.ErrInvalidConfig)
	}
	return &Operator{vocab: vocab, maxRoleDepth: maxRoleDepth}, nil
}

// Refine returns the distinct one-step specializations of c, shortest first.
func (o *Operator) Refine(ctx context.Context, c domain.Concept) ([]domain.Concept, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ec, err := FromConcept(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnsupportedConcept, err)
	}

	refs := o.refine(ec, 0)
	slices.SortFunc(refs, func(a, b Concept) int { return domain.CompareConcepts(a, b) })
	refs = slices.CompactFunc(refs, func(a, b Concept) bool { return a.String() == b.String() })

	out := make([]domain.Concept, len(refs))
	for i, r := range refs {
		out[i] = r
	}
	return out, nil
}

func (o *Operator) refine(c Concept, depth int) []Concept {
	self := c.String()
	var out []Concept
	add := func(r Concept) {
		if r.String() != self {
			out = append(out, r)
		}
	}

	for _, k := range o.vocab.TopClasses() {
		if o.implied(c.classes, k) {
			continue
		}
		add(o.reduce(c.withClasses(append(slices.Clone(c.classes), k))))
	}

	for i, x := range c.classes {
		for _, sub := range o.vocab.SubClasses(x) {
			classes := slices.Clone(c.classes)
			classes[i] = sub
			add(o.reduce(c.withClasses(classes)))
		}
	}

	if depth < o.maxRoleDepth {
		for _, role := range o.vocab.Roles() {
			if !c.hasRole(role) {
				add(And(c, Exists(role, Top())))
			}
		}
	}

	for i, r := range c.exists {
		for _, f := range o.refine(r.Filler, depth+1) {
			add(c.withRestriction(i, Restriction{Role: r.Role, Filler: f}))
		}
	}
	return out
}

func (o *Operator) implied(classes []string, k string) bool {
	for _, x := range classes {
		if o.vocab.IsSubClassOf(x, k) {
			return true
		}
	}
	return false
}

// reduce drops classes implied by another conjunct of the same node.
func (o *Operator) reduce(c Concept) Concept {
	if len(c.classes) < 2 {
		return c
	}
	kept := make([]string, 0, len(c.classes))
	for _, x := range c.classes {
		redundant := false
		for _, y := range c.classes {
			if x != y && o.vocab.IsSubClassOf(y, x) {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, x)
		}
	}
	return c.withClasses(kept)
}
