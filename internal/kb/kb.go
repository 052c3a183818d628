// Package kb holds an in-memory knowledge base: a class hierarchy, roles,
// individuals with asserted types and role assertions.
package kb

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/el"
)

// KB is immutable after Build and safe for concurrent reads.
type KB struct {
	parents     map[string][]string
	children    map[string][]string
	ancestors   map[string]map[string]struct{} // reflexive
	roles       []string
	roleSet     map[string]struct{}
	individuals []string
	types       map[string]map[string]struct{} // individual -> inferred classes
	edges       map[string]map[string][]string // role -> subject -> objects
}

var _ el.Vocabulary = (*KB)(nil)

// Builder accumulates axioms and assertions before Build validates them.
type Builder struct {
	classes     map[string][]string
	roles       map[string]struct{}
	individuals map[string][]string
	relations   []relation
}

type relation struct {
	role, subject, object string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		classes:     make(map[string][]string),
		roles:       make(map[string]struct{}),
		individuals: make(map[string][]string),
	}
}

// Class declares a class with its direct superclasses.
func (b *Builder) Class(name string, parents ...string) *Builder {
	b.classes[name] = append(b.classes[name], parents...)
	return b
}

// Role declares a role.
func (b *Builder) Role(name string) *Builder {
	b.roles[name] = struct{}{}
	return b
}

// Individual declares an individual with asserted types.
func (b *Builder) Individual(name string, types ...string) *Builder {
	b.individuals[name] = append(b.individuals[name], types...)
	return b
}

// Relate asserts role(subject, object).
func (b *Builder) Relate(role, subject, object string) *Builder {
	b.relations = append(b.relations, relation{role: role, subject: subject, object: object})
	return b
}

// Build validates references and computes the class closure.
func (b *Builder) Build() (*KB, error) {
	k := &KB{
		parents:   make(map[string][]string, len(b.classes)),
		children:  make(map[string][]string),
		ancestors: make(map[string]map[string]struct{}, len(b.classes)),
		roleSet:   make(map[string]struct{}, len(b.roles)),
		types:     make(map[string]map[string]struct{}, len(b.individuals)),
		edges:     make(map[string]map[string][]string),
	}

	for name, parents := range b.classes {
		if !validName(name) {
			return nil, fmt.Errorf("class name %q: %w", name, domain.ErrInvalidInput)
		}
		for _, p := range parents {
			if _, ok := b.classes[p]; !ok {
				return nil, fmt.Errorf("class %q: unknown superclass %q: %w", name, p, domain.ErrInvalidInput)
			}
		}
		ps := slices.Clone(parents)
		slices.Sort(ps)
		k.parents[name] = slices.Compact(ps)
		for _, p := range k.parents[name] {
			k.children[p] = append(k.children[p], name)
		}
	}
	for _, subs := range k.children {
		slices.Sort(subs)
	}
	for name := range k.parents {
		if err := k.closeAncestors(name, map[string]bool{}); err != nil {
			return nil, err
		}
	}

	for role := range b.roles {
		if !validName(role) {
			return nil, fmt.Errorf("role name %q: %w", role, domain.ErrInvalidInput)
		}
		k.roles = append(k.roles, role)
		k.roleSet[role] = struct{}{}
	}
	slices.Sort(k.roles)

	for ind, asserted := range b.individuals {
		inferred := make(map[string]struct{})
		for _, t := range asserted {
			anc, ok := k.ancestors[t]
			if !ok {
				return nil, fmt.Errorf("individual %q: unknown class %q: %w", ind, t, domain.ErrInvalidInput)
			}
			for a := range anc {
				inferred[a] = struct{}{}
			}
		}
		k.individuals = append(k.individuals, ind)
		k.types[ind] = inferred
	}
	slices.Sort(k.individuals)

	for _, r := range b.relations {
		if _, ok := k.roleSet[r.role]; !ok {
			return nil, fmt.Errorf("assertion %s(%s, %s): unknown role: %w", r.role, r.subject, r.object, domain.ErrInvalidInput)
		}
		for _, ind := range []string{r.subject, r.object} {
			if _, ok := k.types[ind]; !ok {
				return nil, fmt.Errorf("assertion %s(%s, %s): %w: %s", r.role, r.subject, r.object, domain.ErrUnknownIndividual, ind)
			}
		}
		if k.edges[r.role] == nil {
			k.edges[r.role] = make(map[string][]string)
		}
		objs := append(k.edges[r.role][r.subject], r.object)
		slices.Sort(objs)
		k.edges[r.role][r.subject] = slices.Compact(objs)
	}
	return k, nil
}

func (k *KB) closeAncestors(name string, visiting map[string]bool) error {
	if _, done := k.ancestors[name]; done {
		return nil
	}
	if visiting[name] {
		return fmt.Errorf("class hierarchy cycle through %q: %w", name, domain.ErrInvalidInput)
	}
	visiting[name] = true
	anc := map[string]struct{}{name: {}}
	for _, p := range k.parents[name] {
		if err := k.closeAncestors(p, visiting); err != nil {
			return err
		}
		for a := range k.ancestors[p] {
			anc[a] = struct{}{}
		}
	}
	delete(visiting, name)
	k.ancestors[name] = anc
	return nil
}

func validName(s string) bool {
	if s == "" || s == el.TopName || s == "AND" || s == "EXISTS" {
		return false
	}
	for _, r := range s {
		if r == ' ' || r == '(' || r == ')' || r == '.' {
			return false
		}
	}
	return true
}

// Classes returns all class names, sorted.
func (k *KB) Classes() []string {
	out := make([]string, 0, len(k.parents))
	for c := range k.parents {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// TopClasses returns the classes without superclasses, sorted.
func (k *KB) TopClasses() []string {
	var out []string
	for c, ps := range k.parents {
		if len(ps) == 0 {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}

// SubClasses returns the direct subclasses of class, sorted.
func (k *KB) SubClasses(class string) []string {
	return slices.Clone(k.children[class])
}

// IsSubClassOf reports whether sub is class or a descendant of super.
func (k *KB) IsSubClassOf(sub, super string) bool {
	_, ok := k.ancestors[sub][super]
	return ok
}

// Roles returns the role names, sorted.
func (k *KB) Roles() []string { return slices.Clone(k.roles) }

// Individuals returns the individual names, sorted.
func (k *KB) Individuals() []string { return slices.Clone(k.individuals) }

// HasIndividual reports whether ind is known.
func (k *KB) HasIndividual(ind string) bool {
	_, ok := k.types[ind]
	return ok
}

// Satisfies reports whether ind is an instance of c.
func (k *KB) Satisfies(ind string, c el.Concept) (bool, error) {
	if !k.HasIndividual(ind) {
		return false, fmt.Errorf("%w: %s", domain.ErrUnknownIndividual, ind)
	}
	return k.satisfies(ind, c), nil
}

func (k *KB) satisfies(ind string, c el.Concept) bool {
	types := k.types[ind]
	for _, cls := range c.Classes() {
		if _, ok := types[cls]; !ok {
			return false
		}
	}
	for _, r := range c.Restrictions() {
		found := false
		for _, succ := range k.edges[r.Role][ind] {
			if k.satisfies(succ, r.Filler) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Instances returns the members of candidates that satisfy c.
func (k *KB) Instances(c el.Concept, candidates domain.ExampleSet) (domain.ExampleSet, error) {
	out := make(domain.ExampleSet)
	for ind := range candidates {
		ok, err := k.Satisfies(ind, c)
		if err != nil {
			return nil, err
		}
		if ok {
			out.Add(ind)
		}
	}
	return out, nil
}

// Stats summarizes the knowledge base size.
type Stats struct {
	Classes     int `json:"classes"`
	Roles       int `json:"roles"`
	Individuals int `json:"individuals"`
}

// Stats returns the knowledge base size.
func (k *KB) Stats() Stats {
	return Stats{Classes: len(k.parents), Roles: len(k.roles), Individuals: len(k.individuals)}
}
