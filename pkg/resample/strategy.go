// Package resample estimates learner performance by training and
// scoring on repeated train/test splits of a dataset.
package resample

import (
	"math/rand"

	"github.com/pkg/errors"
)

var (
	ErrTooFewRows       = errors.New("not enough rows for the requested split")
	ErrBadRatio         = errors.New("holdout ratio must be in (0, 1)")
	ErrBadFolds         = errors.New("k-fold needs at least 2 folds")
	ErrNoMeasures       = errors.New("at least one measure is required")
	ErrBuilderMustBeSet = errors.New("learner builder must be set")
)

// Fold is one train/test split, as row indices into the source dataset.
type Fold struct {
	Train []int
	Test  []int
}

// Strategy produces the train/test splits of a resampling scheme.
type Strategy interface {
	Name() string
	Folds(rows int) ([]Fold, error)
}

// Holdout reserves a fraction of shuffled rows for testing, producing a
// single fold.
type Holdout struct {
	Ratio float64
	Seed  int64
}

func (h Holdout) Name() string { return "holdout" }

func (h Holdout) Folds(rows int) ([]Fold, error) {
	if h.Ratio <= 0 || h.Ratio >= 1 {
		return nil, ErrBadRatio
	}
	if rows < 2 {
		return nil, ErrTooFewRows
	}

	perm := rand.New(rand.NewSource(h.Seed)).Perm(rows)

	cut := int(float64(rows) * h.Ratio)
	if cut == 0 {
		cut = 1
	}
	if cut == rows {
		cut = rows - 1
	}

	return []Fold{{Train: perm[cut:], Test: perm[:cut]}}, nil
}

// KFold shuffles rows and splits them into K folds, each serving as the
// test set once while the rest train.
type KFold struct {
	K    int
	Seed int64
}

func (k KFold) Name() string { return "kfold" }

func (k KFold) Folds(rows int) ([]Fold, error) {
	if k.K < 2 {
		return nil, ErrBadFolds
	}
	if rows < k.K {
		return nil, ErrTooFewRows
	}

	perm := rand.New(rand.NewSource(k.Seed)).Perm(rows)

	folds := make([]Fold, k.K)
	for i, row := range perm {
		folds[i%k.K].Test = append(folds[i%k.K].Test, row)
	}
	for i := range folds {
		test := make(map[int]struct{}, len(folds[i].Test))
		for _, row := range folds[i].Test {
			test[row] = struct{}{}
		}
		for _, row := range perm {
			if _, ok := test[row]; !ok {
				folds[i].Train = append(folds[i].Train, row)
			}
		}
	}

	return folds, nil
}
