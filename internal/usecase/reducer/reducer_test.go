package reducer

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/partial"
)

func def(name string, gen uint64, covered ...string) partial.Definition {
	return partial.NewDefinition(ulid.ULID{}, domain.Expression{Text: name, Len: 1}, domain.NewExampleSet(covered...), gen)
}

func names(defs []partial.Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Concept().String()
	}
	return out
}

func TestReduce_GenerationOrder(t *testing.T) {
	targets := domain.NewExampleSet("1", "2", "3", "4")

	tests := []struct {
		name      string
		defs      []partial.Definition
		allowance int
		want      []string
		marginal  []int
		uncovered []string
	}{
		{
			name:      "A B C needs all three",
			defs:      []partial.Definition{def("A", 0, "1", "2"), def("B", 1, "2", "3"), def("C", 2, "4")},
			want:      []string{"A", "B", "C"},
			marginal:  []int{2, 1, 1},
			uncovered: []string{},
		},
		{
			name:      "C first still needs A and B",
			defs:      []partial.Definition{def("A", 1, "1", "2"), def("B", 2, "2", "3"), def("C", 0, "4")},
			want:      []string{"C", "A", "B"},
			marginal:  []int{1, 2, 1},
			uncovered: []string{},
		},
		{
			name:      "C first with one allowed gap stops after A",
			defs:      []partial.Definition{def("A", 1, "1", "2"), def("B", 2, "2", "3"), def("C", 0, "4")},
			allowance: 1,
			want:      []string{"C", "A"},
			marginal:  []int{1, 2},
			uncovered: []string{"3"},
		},
		{
			name:      "definitions adding nothing are skipped",
			defs:      []partial.Definition{def("A", 0, "1", "2"), def("AA", 1, "1"), def("B", 2, "3", "4")},
			want:      []string{"A", "B"},
			marginal:  []int{2, 2},
			uncovered: []string{},
		},
		{
			name:      "best effort when coverage is unreachable",
			defs:      []partial.Definition{def("A", 0, "1"), def("X", 1, "9")},
			want:      []string{"A"},
			marginal:  []int{1},
			uncovered: []string{"2", "3", "4"},
		},
		{
			name:      "allowance already met selects nothing",
			defs:      []partial.Definition{def("A", 0, "1")},
			allowance: 4,
			want:      []string{},
			marginal:  []int{},
			uncovered: []string{"1", "2", "3", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().Reduce(tt.defs, targets, tt.allowance)
			require.NoError(t, err)

			assert.Equal(t, tt.want, names(res.Definitions()))
			marginal := make([]int, len(res.Selected))
			for i, s := range res.Selected {
				marginal[i] = s.Marginal
			}
			assert.Equal(t, tt.marginal, marginal)
			assert.Equal(t, tt.uncovered, res.Uncovered.Sorted())
			assert.Equal(t, len(tt.uncovered) == 0, res.Complete())
		})
	}
}

func TestReduce_CompletenessSortKey(t *testing.T) {
	targets := domain.NewExampleSet("1", "2", "3", "4")
	defs := []partial.Definition{
		def("A", 0, "1"),
		def("B", 1, "2"),
		def("C", 2, "1", "2", "3"),
		def("D", 3, "4"),
	}

	byGen, err := New().Reduce(defs, targets, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, names(byGen.Definitions()))

	byCompleteness, err := New(WithSortKey(partial.ByCompleteness)).Reduce(defs, targets, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "D"}, names(byCompleteness.Definitions()))
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	targets := domain.NewExampleSet("1", "2")
	defs := []partial.Definition{def("B", 1, "2"), def("A", 0, "1")}

	_, err := New().Reduce(defs, targets, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A"}, names(defs))
	assert.Equal(t, 2, targets.Len())
	assert.Equal(t, 1, defs[0].CoveredPositives().Len())
}

func TestReduce_NegativeAllowance(t *testing.T) {
	_, err := New().Reduce(nil, domain.NewExampleSet("1"), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReduceFrom_SnapshotOfCollection(t *testing.T) {
	col := partial.NewCollection()
	col.Add(domain.Expression{Text: "A", Len: 1}, domain.NewExampleSet("1", "2"))
	col.Add(domain.Expression{Text: "B", Len: 1}, domain.NewExampleSet("3"))

	res, err := New().ReduceFrom(col, domain.NewExampleSet("1", "2", "3"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names(res.Definitions()))
	assert.True(t, res.Complete())
}

// Randomized check of the cover guarantees and determinism.
func TestReduce_CoverProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		targets := domain.NewExampleSet()
		for i := 0; i < 20; i++ {
			targets.Add(strconv.Itoa(i))
		}
		var defs []partial.Definition
		for i := 0; i < 30; i++ {
			covered := domain.NewExampleSet()
			for j := 0; j < 1+rng.Intn(5); j++ {
				covered.Add(strconv.Itoa(rng.Intn(25)))
			}
			defs = append(defs, def("D"+strconv.Itoa(i), uint64(rng.Intn(1000)), covered.Sorted()...))
		}
		allowance := rng.Intn(4)

		r := New()
		res, err := r.Reduce(defs, targets, allowance)
		require.NoError(t, err)

		union := domain.NewExampleSet()
		for _, d := range res.Definitions() {
			union = union.Union(d.CoveredPositives())
		}
		for id := range targets {
			if !res.Uncovered.Has(id) {
				assert.True(t, union.Has(id), "covered target %s not in union", id)
			}
		}

		intersecting := 0
		for _, d := range defs {
			if d.CoveredPositives().IntersectLen(targets) > 0 {
				intersecting++
			}
		}
		assert.LessOrEqual(t, len(res.Selected), intersecting)

		again, err := r.Reduce(defs, targets, allowance)
		require.NoError(t, err)
		assert.Equal(t, names(res.Definitions()), names(again.Definitions()))
	}
}
