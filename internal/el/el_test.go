package el

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/celearn/internal/domain"
)

func TestConcept_StringAndLength(t *testing.T) {
	tests := []struct {
		name   string
		c      Concept
		want   string
		length int
	}{
		{"top", Top(), "TOP", 1},
		{"class", Class("Person"), "Person", 1},
		{"conjunction sorted", And(Class("B"), Class("A")), "A AND B", 3},
		{"duplicate class", And(Class("A"), Class("A")), "A", 1},
		{"top absorbed", And(Top(), Class("A")), "A", 1},
		{"exists top", Exists("r", Top()), "(EXISTS r.TOP)", 3},
		{
			"nested conjunction filler",
			And(Class("A"), Exists("r", And(Class("D"), Class("C")))),
			"A AND (EXISTS r.(C AND D))",
			7,
		},
		{
			"restrictions sorted",
			And(Exists("s", Top()), Exists("r", Class("B"))),
			"(EXISTS r.B) AND (EXISTS s.TOP)",
			7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := tt.c.Length(); got != tt.length {
				t.Errorf("Length() = %d, want %d", got, tt.length)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"TOP",
		"Person",
		"Female AND Person",
		"(EXISTS hasChild.TOP)",
		"Male AND (EXISTS hasChild.(Female AND (EXISTS hasChild.TOP)))",
		"(EXISTS a.B) AND (EXISTS a.C)",
	}
	for _, in := range inputs {
		c, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if c.String() != in {
			t.Errorf("Parse(%q).String() = %q", in, c.String())
		}
	}
}

func TestParse_Normalizes(t *testing.T) {
	c, err := Parse("  B AND TOP AND (A)  AND EXISTS r.TOP")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := c.String(), "A AND B AND (EXISTS r.TOP)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "A AND", "(A", "EXISTS .A", "EXISTS r A", "A B", "AND", ")"} {
		_, err := Parse(in)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidInput", in, err)
		}
	}
}

func TestFromConcept(t *testing.T) {
	c, err := FromConcept(domain.Expression{Text: "A AND (EXISTS r.B)", Len: 5})
	if err != nil {
		t.Fatalf("FromConcept: %v", err)
	}
	if c.Length() != 5 {
		t.Errorf("Length() = %d, want 5", c.Length())
	}

	orig := Class("X")
	back, err := FromConcept(orig)
	if err != nil || back.String() != "X" {
		t.Errorf("FromConcept(el) = %v, %v", back, err)
	}
}

// family vocabulary: Person > {Male, Female}, Female > Mother, role hasChild.
type vocab struct {
	parents map[string]string
	roles   []string
}

func familyVocab() *vocab {
	return &vocab{
		parents: map[string]string{"Person": "", "Male": "Person", "Female": "Person", "Mother": "Female"},
		roles:   []string{"hasChild"},
	}
}

func (v *vocab) TopClasses() []string {
	var out []string
	for c, p := range v.parents {
		if p == "" {
			out = append(out, c)
		}
	}
	return out
}

func (v *vocab) SubClasses(class string) []string {
	var out []string
	for _, c := range []string{"Female", "Male", "Mother", "Person"} {
		if v.parents[c] == class {
			out = append(out, c)
		}
	}
	return out
}

func (v *vocab) IsSubClassOf(sub, super string) bool {
	for c := sub; c != ""; c = v.parents[c] {
		if c == super {
			return true
		}
	}
	return false
}

func (v *vocab) Roles() []string { return v.roles }

func refineStrings(t *testing.T, op *Operator, in string) []string {
	t.Helper()
	refs, err := op.Refine(context.Background(), MustParse(in))
	if err != nil {
		t.Fatalf("Refine(%q): %v", in, err)
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}

func TestOperator_Refine(t *testing.T) {
	op, err := NewOperator(familyVocab(), 1)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}

	tests := []struct {
		in   string
		want []string
	}{
		{"TOP", []string{"Person", "(EXISTS hasChild.TOP)"}},
		{"Person", []string{"Female", "Male", "Person AND (EXISTS hasChild.TOP)"}},
		{"Female", []string{"Mother", "Female AND (EXISTS hasChild.TOP)"}},
		{"Mother", []string{"Mother AND (EXISTS hasChild.TOP)"}},
		{"(EXISTS hasChild.TOP)", []string{"(EXISTS hasChild.Person)", "Person AND (EXISTS hasChild.TOP)"}},
		{"Mother AND (EXISTS hasChild.Mother)", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := refineStrings(t, op, tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Refine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestOperator_RoleDepthBound(t *testing.T) {
	op, err := NewOperator(familyVocab(), 0)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}
	if got := refineStrings(t, op, "TOP"); !reflect.DeepEqual(got, []string{"Person"}) {
		t.Errorf("Refine(TOP) = %q, want only Person", got)
	}

	if _, err := NewOperator(familyVocab(), -1); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("negative depth error = %v", err)
	}
}

func TestOperator_RefinementsAreStrictlyLongerOrSpecialized(t *testing.T) {
	op, _ := NewOperator(familyVocab(), 2)
	seen := map[string]bool{}
	frontier := []string{"TOP"}
	for depth := 0; depth < 4; depth++ {
		var next []string
		for _, c := range frontier {
			for _, r := range refineStrings(t, op, c) {
				if r == c {
					t.Fatalf("%q refined to itself", c)
				}
				if !seen[r] {
					seen[r] = true
					next = append(next, r)
				}
			}
		}
		frontier = next
	}
	if len(seen) == 0 {
		t.Fatal("no refinements produced")
	}
}

func TestOperator_CancelledContext(t *testing.T) {
	op, _ := NewOperator(familyVocab(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := op.Refine(ctx, Top()); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
