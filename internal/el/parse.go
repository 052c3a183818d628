package el

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/celearn/internal/domain"
)

// Parse reads the canonical syntax produced by Concept.String:
// TOP, class names, AND, and (EXISTS role.filler).
func Parse(s string) (Concept, error) {
	p := &parser{src: s, toks: tokenize(s)}
	if len(p.toks) == 0 {
		return Concept{}, p.errorf("empty expression")
	}
	c, err := p.conjunction()
	if err != nil {
		return Concept{}, err
	}
	if p.pos != len(p.toks) {
		return Concept{}, p.errorf("unexpected %q", p.toks[p.pos])
	}
	return c, nil
}

// MustParse is Parse that panics on error. For tests and literals.
func MustParse(s string) Concept {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

type parser struct {
	src  string
	toks []string
	pos  int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("parse concept %q: %s: %w", p.src, fmt.Sprintf(format, args...), domain.ErrInvalidInput)
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *parser) next() string {
	t := p.peek()
	if t != "" {
		p.pos++
	}
	return t
}

func (p *parser) conjunction() (Concept, error) {
	first, err := p.atom()
	if err != nil {
		return Concept{}, err
	}
	parts := []Concept{first}
	for p.peek() == "AND" {
		p.next()
		c, err := p.atom()
		if err != nil {
			return Concept{}, err
		}
		parts = append(parts, c)
	}
	return And(parts...), nil
}

func (p *parser) atom() (Concept, error) {
	switch tok := p.next(); tok {
	case "":
		return Concept{}, p.errorf("unexpected end of expression")
	case "(":
		c, err := p.conjunction()
		if err != nil {
			return Concept{}, err
		}
		if p.next() != ")" {
			return Concept{}, p.errorf("missing closing parenthesis")
		}
		return c, nil
	case TopName:
		return Top(), nil
	case "EXISTS":
		role := p.next()
		if !isName(role) {
			return Concept{}, p.errorf("expected role name after EXISTS, got %q", role)
		}
		if p.next() != "." {
			return Concept{}, p.errorf("expected '.' after role %q", role)
		}
		filler, err := p.atom()
		if err != nil {
			return Concept{}, err
		}
		return Exists(role, filler), nil
	default:
		if !isName(tok) {
			return Concept{}, p.errorf("unexpected %q", tok)
		}
		return Class(tok), nil
	}
}

func isName(tok string) bool {
	switch tok {
	case "", "(", ")", ".", "AND", "EXISTS", TopName:
		return false
	}
	return true
}

func tokenize(s string) []string {
	var (
		toks []string
		cur  strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()
		case r == '(' || r == ')' || r == '.':
			flush()
			toks = append(toks, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}
