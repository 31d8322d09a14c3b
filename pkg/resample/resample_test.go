package resample

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-flowfit/pkg/dataset"
	"github.com/askiada/go-flowfit/pkg/flow"
	"github.com/askiada/go-flowfit/pkg/learner"
	"github.com/askiada/go-flowfit/pkg/operator"
)

func flowWithScaler() (*flow.Flow, error) {
	return flow.Chain(operator.NewScaler())
}

func TestHoldoutFolds(t *testing.T) {
	t.Parallel()

	folds, err := Holdout{Ratio: 0.25, Seed: 1}.Folds(8)
	require.NoError(t, err)
	require.Len(t, folds, 1)

	assert.Len(t, folds[0].Test, 2)
	assert.Len(t, folds[0].Train, 6)
	assertPartition(t, 8, folds[0])
}

func TestHoldoutBadRatio(t *testing.T) {
	t.Parallel()

	for _, ratio := range []float64{0, 1, -0.5, 2} {
		_, err := Holdout{Ratio: ratio}.Folds(10)
		assert.ErrorIs(t, err, ErrBadRatio)
	}
}

func TestKFoldFolds(t *testing.T) {
	t.Parallel()

	folds, err := KFold{K: 3, Seed: 7}.Folds(10)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	testRows := map[int]int{}
	for _, fold := range folds {
		assertPartition(t, 10, fold)
		for _, row := range fold.Test {
			testRows[row]++
		}
	}

	// Every row lands in exactly one test fold.
	assert.Len(t, testRows, 10)
	for row, count := range testRows {
		assert.Equal(t, 1, count, "row %d", row)
	}
}

func TestKFoldDeterministicSeed(t *testing.T) {
	t.Parallel()

	a, err := KFold{K: 4, Seed: 42}.Folds(20)
	require.NoError(t, err)
	b, err := KFold{K: 4, Seed: 42}.Folds(20)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestKFoldErrors(t *testing.T) {
	t.Parallel()

	_, err := KFold{K: 1}.Folds(10)
	assert.ErrorIs(t, err, ErrBadFolds)

	_, err = KFold{K: 5}.Folds(3)
	assert.ErrorIs(t, err, ErrTooFewRows)
}

func assertPartition(t *testing.T, rows int, fold Fold) {
	t.Helper()

	seen := map[int]bool{}
	for _, row := range append(append([]int{}, fold.Train...), fold.Test...) {
		assert.False(t, seen[row], "row %d assigned twice", row)
		seen[row] = true
		assert.GreaterOrEqual(t, row, 0)
		assert.Less(t, row, rows)
	}
	assert.Len(t, seen, rows)
}

func cvDataset(t *testing.T) *dataset.Dataset {
	t.Helper()

	n := 12
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
		y[i] = 2 * float64(i)
	}

	ds, err := dataset.New(dataset.Num("x", x), dataset.Num("y", y))
	require.NoError(t, err)
	require.NoError(t, ds.SetTarget("y"))

	return ds
}

func TestRun(t *testing.T) {
	t.Parallel()

	build := func() (learner.Learner, error) {
		return learner.NewLinear(), nil
	}

	result, err := Run(context.Background(), build, cvDataset(t),
		KFold{K: 3, Seed: 1}, []Measure{RMSE{}, MAE{}, R2{}})
	require.NoError(t, err)

	assert.Equal(t, "kfold", result.Strategy)
	assert.Equal(t, "linear", result.Learner)
	require.Len(t, result.Folds, 3)

	// The relationship is noiseless and linear, so every fold scores
	// perfectly.
	assert.InDelta(t, 0, result.Mean("rmse"), 1e-9)
	assert.InDelta(t, 0, result.Mean("mae"), 1e-9)
	assert.InDelta(t, 1, result.Mean("r2"), 1e-9)
}

func TestRunWithPoolSize(t *testing.T) {
	t.Parallel()

	build := func() (learner.Learner, error) {
		return learner.NewFeatureless(), nil
	}

	result, err := Run(context.Background(), build, cvDataset(t),
		KFold{K: 4, Seed: 1}, []Measure{RMSE{}}, WithPoolSize(2))
	require.NoError(t, err)
	assert.Len(t, result.Folds, 4)
}

func TestRunFoldFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	build := func() (learner.Learner, error) {
		return nil, boom
	}

	_, err := Run(context.Background(), build, cvDataset(t),
		KFold{K: 3, Seed: 1}, []Measure{RMSE{}})
	assert.ErrorIs(t, err, boom)
}

func TestRunFoldsDrainsOnSubmitFailure(t *testing.T) {
	t.Parallel()

	build := func() (learner.Learner, error) {
		return learner.NewFeatureless(), nil
	}
	folds, err := KFold{K: 3, Seed: 1}.Folds(cvDataset(t).NumRows())
	require.NoError(t, err)

	// The first fold is accepted and runs slowly on its own goroutine;
	// the second submission fails. The run must not return before the
	// accepted fold has finished.
	var finished atomic.Bool
	calls := 0
	submit := func(task func()) error {
		calls++
		if calls > 1 {
			return errors.New("pool overloaded")
		}

		go func() {
			time.Sleep(20 * time.Millisecond)
			finished.Store(true)
			task()
		}()

		return nil
	}

	_, err = runFolds(context.Background(), build, cvDataset(t), "kfold", folds, []Measure{RMSE{}}, submit)
	require.Error(t, err)
	assert.True(t, finished.Load())
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	build := func() (learner.Learner, error) {
		return learner.NewFeatureless(), nil
	}

	_, err := Run(context.Background(), nil, cvDataset(t), KFold{K: 3}, []Measure{RMSE{}})
	assert.ErrorIs(t, err, ErrBuilderMustBeSet)

	_, err = Run(context.Background(), build, cvDataset(t), KFold{K: 3, Seed: 1}, nil)
	assert.ErrorIs(t, err, ErrNoMeasures)
}

func TestAccuracy(t *testing.T) {
	t.Parallel()

	truth, err := dataset.New(dataset.Cat("class", []string{"a", "b", "a", "b"}))
	require.NoError(t, err)
	require.NoError(t, truth.SetTarget("class"))

	pred := &learner.Prediction{Labels: []string{"a", "b", "b", "b"}}

	score, err := Accuracy{}.Score(pred, truth)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, score, 1e-12)
}

func TestMeasureWrongTask(t *testing.T) {
	t.Parallel()

	truth, err := dataset.New(dataset.Num("y", []float64{1, 2}))
	require.NoError(t, err)
	require.NoError(t, truth.SetTarget("y"))

	pred := &learner.Prediction{Labels: []string{"a", "b"}}

	_, err = RMSE{}.Score(pred, truth)
	assert.ErrorIs(t, err, ErrWrongTask)
}

func TestGraphLearnerSubstitutable(t *testing.T) {
	t.Parallel()

	// A graph learner resamples exactly like a bare learner: each fold
	// refits the flow on its own training split.
	build := func() (learner.Learner, error) {
		f, err := flowWithScaler()
		if err != nil {
			return nil, err
		}

		return learner.NewGraphLearner(f, learner.NewLinear())
	}

	result, err := Run(context.Background(), build, cvDataset(t),
		Holdout{Ratio: 0.25, Seed: 3}, []Measure{RMSE{}})
	require.NoError(t, err)
	assert.Equal(t, "graph.linear", result.Learner)
	assert.InDelta(t, 0, result.Mean("rmse"), 1e-9)
}
