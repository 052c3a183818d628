package posneg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/el"
	"github.com/kailas-cloud/celearn/internal/kb"
	"github.com/kailas-cloud/celearn/internal/usecase/learner"
	"github.com/kailas-cloud/celearn/internal/usecase/partition"
)

func fatherProblem(t *testing.T) (*kb.KB, *Problem) {
	t.Helper()
	k, err := kb.LoadFile("../testdata/family.yaml")
	require.NoError(t, err)
	p, err := New(k,
		domain.NewExampleSet("stefan", "markus"),
		domain.NewExampleSet("heinz", "anna", "gabi", "bernd"),
	)
	require.NoError(t, err)
	return k, p
}

func TestScore(t *testing.T) {
	_, p := fatherProblem(t)
	ctx := context.Background()

	tests := []struct {
		concept  string
		noise    float64
		tooWeak  bool
		pos, neg int
		acc      float64
	}{
		{concept: "Male AND (EXISTS hasChild.TOP)", pos: 2, neg: 0, acc: 1},
		{concept: "Male", pos: 2, neg: 2, acc: 4.0 / 6},
		{concept: "Female", tooWeak: true},
		{concept: "(EXISTS hasChild.Female)", tooWeak: true},
		{concept: "(EXISTS hasChild.Female)", noise: 0.5, pos: 1, neg: 2, acc: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.concept, func(t *testing.T) {
			cov, err := p.Score(ctx, el.MustParse(tt.concept), tt.noise)
			require.NoError(t, err)
			if tt.tooWeak {
				assert.True(t, cov.IsTooWeak())
				return
			}
			assert.False(t, cov.IsTooWeak())
			assert.Equal(t, tt.pos, cov.PositiveCount())
			assert.Equal(t, tt.neg, cov.CoveredNegatives())
			assert.InDelta(t, tt.acc, cov.Accuracy(), 1e-9)
		})
	}
}

func TestFullScore(t *testing.T) {
	_, p := fatherProblem(t)

	d, err := p.FullScore(context.Background(), domain.Expression{Text: "Male", Len: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"markus", "stefan"}, d.CoveredPositives())
	assert.Empty(t, d.NotCoveredPositives())
	assert.Equal(t, []string{"bernd", "heinz"}, d.CoveredNegatives())
	assert.Equal(t, []string{"anna", "gabi"}, d.NotCoveredNegatives())
	assert.True(t, d.IsComplete())
	assert.False(t, d.IsCorrect())
}

func TestNew_Validation(t *testing.T) {
	k, _ := fatherProblem(t)

	_, err := New(k, domain.NewExampleSet(), domain.NewExampleSet("anna"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(k, domain.NewExampleSet("ghost"), domain.NewExampleSet())
	assert.ErrorIs(t, err, domain.ErrUnknownIndividual)

	_, err = New(k, domain.NewExampleSet("anna"), domain.NewExampleSet("anna"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScore_UnsupportedConcept(t *testing.T) {
	_, p := fatherProblem(t)
	_, err := p.Score(context.Background(), domain.Expression{Text: "A OR B", Len: 3}, 0)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedConcept))
}

func TestRestrict(t *testing.T) {
	_, p := fatherProblem(t)

	s, err := p.Restrict(domain.NewExampleSet("stefan"))
	require.NoError(t, err)
	cov, err := s.Score(context.Background(), el.MustParse("Male"), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cov.PositiveCount())
	assert.InDelta(t, 3.0/5, cov.Accuracy(), 1e-9)

	_, err = p.Restrict(domain.NewExampleSet("heinz"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLearn_Father(t *testing.T) {
	k, p := fatherProblem(t)
	op, err := el.NewOperator(k, 2)
	require.NoError(t, err)

	cfg := learner.DefaultConfig()
	cfg.StopOnFirstDefinition = true
	cfg.MaxExpansions = 200
	eng, err := learner.New(el.Top(), op, p, cfg)
	require.NoError(t, err)

	require.NoError(t, eng.Start(context.Background()))
	assert.Equal(t, learner.TerminationDefinition, eng.Status().Termination)

	best, ok := eng.Best()
	require.True(t, ok)
	assert.InDelta(t, 1.0, best.Accuracy(), 1e-9, "best: %s", best.Concept())
	assert.True(t, best.Detail().IsCorrect())
	assert.True(t, best.Detail().IsComplete())
}

func TestLearnPartitioned_Family(t *testing.T) {
	k, err := kb.LoadFile("../testdata/family.yaml")
	require.NoError(t, err)
	// People with a child: a single concept covers all, but partitions find it separately.
	p, err := New(k,
		domain.NewExampleSet("stefan", "markus", "claudia", "gabi", "oma"),
		domain.NewExampleSet("heinz", "michelle", "bernd"),
	)
	require.NoError(t, err)
	op, err := el.NewOperator(k, 1)
	require.NoError(t, err)

	cfg := learner.DefaultConfig()
	cfg.MaxExpansions = 30
	s, err := partition.New(el.Top(), op, p, partition.Config{Workers: 2, Learner: cfg})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	res, err := s.Reduce(0)
	require.NoError(t, err)
	assert.True(t, res.Complete(), "uncovered: %v", res.Uncovered.Sorted())
	for _, d := range res.Definitions() {
		c, err := el.FromConcept(d.Concept())
		require.NoError(t, err)
		neg, err := k.Instances(c, p.Negatives())
		require.NoError(t, err)
		assert.Zero(t, neg.Len(), "%s covers negatives", d.Concept())
	}
}

func TestLoadExamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "father.yaml")
	require.NoError(t, os.WriteFile(path, []byte("positives: [stefan, markus]\nnegatives: [heinz]\n"), 0o600))

	pos, neg, err := LoadExamples(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"markus", "stefan"}, pos.Sorted())
	assert.Equal(t, []string{"heinz"}, neg.Sorted())
}
