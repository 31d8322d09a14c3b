package learner

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

func regressionDataset(t *testing.T, x, y []float64) *dataset.Dataset {
	t.Helper()

	ds, err := dataset.New(dataset.Num("x", x), dataset.Num("y", y))
	require.NoError(t, err)
	require.NoError(t, ds.SetTarget("y"))

	return ds
}

func classificationDataset(t *testing.T, x []float64, labels []string) *dataset.Dataset {
	t.Helper()

	ds, err := dataset.New(dataset.Num("x", x), dataset.Cat("class", labels))
	require.NoError(t, err)
	require.NoError(t, ds.SetTarget("class"))

	return ds
}

func TestFeaturelessNumeric(t *testing.T) {
	t.Parallel()

	l := NewFeatureless()
	require.NoError(t, l.Train(context.Background(), regressionDataset(t, []float64{1, 2, 3}, []float64{10, 20, 30})))
	assert.True(t, l.Trained())

	pred, err := l.Predict(context.Background(), regressionDataset(t, []float64{5, 6}, []float64{0, 0}))
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 20}, pred.Response)
}

func TestFeaturelessMajority(t *testing.T) {
	t.Parallel()

	l := NewFeatureless()
	ds := classificationDataset(t, []float64{1, 2, 3}, []string{"cat", "dog", "cat"})
	require.NoError(t, l.Train(context.Background(), ds))

	pred, err := l.Predict(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "cat", "cat"}, pred.Labels)
}

func TestFeaturelessMajorityTie(t *testing.T) {
	t.Parallel()

	l := NewFeatureless()
	ds := classificationDataset(t, []float64{1, 2}, []string{"dog", "cat"})
	require.NoError(t, l.Train(context.Background(), ds))

	pred, err := l.Predict(context.Background(), ds)
	require.NoError(t, err)
	// Ties break to the lexicographically smallest label.
	assert.Equal(t, "cat", pred.Labels[0])
}

func TestFeaturelessNoTarget(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New(dataset.Num("x", []float64{1}))
	require.NoError(t, err)

	assert.ErrorIs(t, NewFeatureless().Train(context.Background(), ds), ErrNoTarget)
}

func TestPredictBeforeTrain(t *testing.T) {
	t.Parallel()

	ds := regressionDataset(t, []float64{1}, []float64{1})

	for _, l := range []Learner{NewFeatureless(), NewKNN(), NewLinear()} {
		_, err := l.Predict(context.Background(), ds)
		assert.ErrorIs(t, err, ErrNotTrained, l.Name())
	}
}

func TestKNNClassifies(t *testing.T) {
	t.Parallel()

	train := classificationDataset(t,
		[]float64{1, 1.1, 0.9, 10, 10.1, 9.9},
		[]string{"low", "low", "low", "high", "high", "high"},
	)

	l := NewKNN(KNNNeighbours(3))
	require.NoError(t, l.Train(context.Background(), train))

	test := classificationDataset(t, []float64{1.05, 9.95}, []string{"", ""})
	pred, err := l.Predict(context.Background(), test)
	require.NoError(t, err)
	assert.Equal(t, []string{"low", "high"}, pred.Labels)
}

func TestKNNFeatureMismatch(t *testing.T) {
	t.Parallel()

	l := NewKNN()
	require.NoError(t, l.Train(context.Background(), classificationDataset(t, []float64{1, 2}, []string{"a", "b"})))

	other, err := dataset.New(dataset.Num("z", []float64{1}), dataset.Cat("class", []string{""}))
	require.NoError(t, err)
	require.NoError(t, other.SetTarget("class"))

	_, err = l.Predict(context.Background(), other)
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestKNNRejectsMissingFeatures(t *testing.T) {
	t.Parallel()

	ds := classificationDataset(t, []float64{1, math.NaN()}, []string{"a", "b"})
	assert.ErrorIs(t, NewKNN().Train(context.Background(), ds), ErrMissingValues)
}

func TestLinearRecoversExactFit(t *testing.T) {
	t.Parallel()

	// y = 3 + 2x, noiseless, so least squares recovers it exactly.
	x := []float64{0, 1, 2, 3, 4}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 3 + 2*v
	}

	l := NewLinear()
	require.NoError(t, l.Train(context.Background(), regressionDataset(t, x, y)))

	st, err := l.State()
	require.NoError(t, err)
	assert.InDelta(t, 3, st.Intercept, 1e-9)
	assert.InDelta(t, 2, st.Weights[0], 1e-9)

	pred, err := l.Predict(context.Background(), regressionDataset(t, []float64{10}, []float64{0}))
	require.NoError(t, err)
	assert.InDelta(t, 23, pred.Response[0], 1e-9)
}

func TestLinearSingularMatrix(t *testing.T) {
	t.Parallel()

	// Two perfectly collinear features make the normal equations singular.
	ds, err := dataset.New(
		dataset.Num("a", []float64{1, 2, 3}),
		dataset.Num("b", []float64{2, 4, 6}),
		dataset.Num("y", []float64{1, 2, 3}),
	)
	require.NoError(t, err)
	require.NoError(t, ds.SetTarget("y"))

	assert.ErrorIs(t, NewLinear().Train(context.Background(), ds), ErrSingularMatrix)
}

func TestLearnerStateRoundTrips(t *testing.T) {
	t.Parallel()

	t.Run("featureless", func(t *testing.T) {
		t.Parallel()

		l := NewFeatureless()
		require.NoError(t, l.Train(context.Background(), regressionDataset(t, []float64{1}, []float64{7})))

		st, err := l.State()
		require.NoError(t, err)

		restored := FeaturelessFromState(st)
		pred, err := restored.Predict(context.Background(), regressionDataset(t, []float64{1}, []float64{0}))
		require.NoError(t, err)
		assert.Equal(t, float64(7), pred.Response[0])
	})

	t.Run("knn", func(t *testing.T) {
		t.Parallel()

		l := NewKNN(KNNNeighbours(1))
		require.NoError(t, l.Train(context.Background(), classificationDataset(t, []float64{1, 10}, []string{"a", "b"})))

		st, err := l.State()
		require.NoError(t, err)

		restored := KNNFromState(st)
		pred, err := restored.Predict(context.Background(), classificationDataset(t, []float64{9}, []string{""}))
		require.NoError(t, err)
		assert.Equal(t, "b", pred.Labels[0])
	})

	t.Run("linear", func(t *testing.T) {
		t.Parallel()

		l := NewLinear()
		require.NoError(t, l.Train(context.Background(), regressionDataset(t, []float64{0, 1}, []float64{1, 3})))

		st, err := l.State()
		require.NoError(t, err)

		restored := LinearFromState(st)
		pred, err := restored.Predict(context.Background(), regressionDataset(t, []float64{2}, []float64{0}))
		require.NoError(t, err)
		assert.InDelta(t, 5, pred.Response[0], 1e-9)
	})
}
