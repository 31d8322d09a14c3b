package operator

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

func TestTextFeatures(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New(dataset.Txt("bio", []string{"hello wide world", "héllo", ""}))
	require.NoError(t, err)

	op := NewTextFeatures()
	out, err := op.Fit(context.Background(), ds)
	require.NoError(t, err)

	assert.False(t, out.Has("bio"))

	lengths, err := out.Numeric("bio.length")
	require.NoError(t, err)
	// Lengths count runes, not bytes.
	assert.Equal(t, float64(16), lengths[0])
	assert.Equal(t, float64(5), lengths[1])
	assert.True(t, math.IsNaN(lengths[2]))

	words, err := out.Numeric("bio.words")
	require.NoError(t, err)
	assert.Equal(t, float64(3), words[0])
	assert.Equal(t, float64(1), words[1])
	assert.True(t, math.IsNaN(words[2]))
}

func TestTextFeaturesKeepSource(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New(dataset.Txt("bio", []string{"hi"}))
	require.NoError(t, err)

	op := NewTextFeatures(TextFeaturesKeepSource())
	out, err := op.Fit(context.Background(), ds)
	require.NoError(t, err)

	assert.True(t, out.Has("bio"))
}

func TestTextFeaturesApplyBeforeFit(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New(dataset.Txt("bio", []string{"hi"}))
	require.NoError(t, err)

	_, err = NewTextFeatures().Apply(context.Background(), ds)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestSelect(t *testing.T) {
	t.Parallel()

	newDS := func(t *testing.T) *dataset.Dataset {
		t.Helper()
		ds, err := dataset.New(
			dataset.Num("a", []float64{1}),
			dataset.Num("b", []float64{2}),
			dataset.Cat("c", []string{"x"}),
			dataset.Num("y", []float64{0}),
		)
		require.NoError(t, err)
		require.NoError(t, ds.SetTarget("y"))

		return ds
	}

	tcs := map[string]struct {
		opts []SelectOption
		want []string
	}{
		"identity": {want: []string{"a", "b", "c", "y"}},
		"keep":     {opts: []SelectOption{SelectKeep("a")}, want: []string{"a", "y"}},
		"drop":     {opts: []SelectOption{SelectDrop("b", "c")}, want: []string{"a", "y"}},
		"types":    {opts: []SelectOption{SelectTypes(dataset.Categorical)}, want: []string{"c", "y"}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			sel := NewSelect(tc.opts...)
			out, err := sel.Fit(context.Background(), newDS(t))
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, out.Names())

			// The target survives every selection.
			assert.Equal(t, "y", out.Target())
		})
	}
}

func TestSelectStateRoundTrip(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New(dataset.Num("a", []float64{1}), dataset.Num("b", []float64{2}))
	require.NoError(t, err)

	sel := NewSelect(SelectKeep("a"))
	_, err = sel.Fit(context.Background(), ds)
	require.NoError(t, err)

	st, err := sel.State()
	require.NoError(t, err)

	restored := SelectFromState(st)
	require.True(t, restored.Trained())

	out, err := restored.Apply(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, out.Names())
}
