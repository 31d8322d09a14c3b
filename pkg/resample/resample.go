package resample

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
	"github.com/askiada/go-flowfit/pkg/learner"
)

// Builder constructs a fresh, untrained learner for one fold. Each fold
// trains its own instance so folds never share learned state.
type Builder func() (learner.Learner, error)

// FoldResult holds the scores of one fold, keyed by measure name.
type FoldResult struct {
	Fold   int
	Scores map[string]float64
}

// Result aggregates the fold scores of one resampling run.
type Result struct {
	Strategy string
	Learner  string
	Folds    []FoldResult
}

// Mean averages a measure's score across folds.
func (r *Result) Mean(measure string) float64 {
	if len(r.Folds) == 0 {
		return 0
	}

	sum := 0.0
	for _, fold := range r.Folds {
		sum += fold.Scores[measure]
	}

	return sum / float64(len(r.Folds))
}

type config struct {
	poolSize int
}

// Option configures a resampling run.
type Option func(*config)

// WithPoolSize caps the number of folds trained concurrently. Default
// is one worker per fold.
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// Run trains and scores a fresh learner per fold and collects the
// measures. Folds run concurrently on a worker pool.
func Run(ctx context.Context, build Builder, ds *dataset.Dataset, strategy Strategy, measures []Measure, opts ...Option) (*Result, error) {
	if build == nil {
		return nil, ErrBuilderMustBeSet
	}
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if len(measures) == 0 {
		return nil, ErrNoMeasures
	}

	folds, err := strategy.Folds(ds.NumRows())
	if err != nil {
		return nil, errors.Wrap(err, strategy.Name())
	}

	cfg := &config{poolSize: len(folds)}
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := ants.NewPool(cfg.poolSize)
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	return runFolds(ctx, build, ds, strategy.Name(), folds, measures, pool.Submit)
}

func runFolds(ctx context.Context, build Builder, ds *dataset.Dataset, strategy string, folds []Fold, measures []Measure, submit func(func()) error) (*Result, error) {
	result := &Result{Strategy: strategy, Folds: make([]FoldResult, len(folds))}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, fold := range folds {
		wg.Add(1)
		submitErr := submit(func() {
			defer wg.Done()

			foldResult, name, err := runFold(ctx, build, ds, fold, measures)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "fold %d", i)
				}

				return
			}
			foldResult.Fold = i
			result.Folds[i] = foldResult
			result.Learner = name
		})
		if submitErr != nil {
			// The folds already submitted keep running and writing into
			// the shared result, so wait them out before returning.
			wg.Done()
			wg.Wait()

			return nil, errors.Wrap(submitErr, "submit fold")
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return result, nil
}

func runFold(ctx context.Context, build Builder, ds *dataset.Dataset, fold Fold, measures []Measure) (FoldResult, string, error) {
	l, err := build()
	if err != nil {
		return FoldResult{}, "", errors.Wrap(err, "build learner")
	}

	train, err := ds.Subset(fold.Train)
	if err != nil {
		return FoldResult{}, "", err
	}
	test, err := ds.Subset(fold.Test)
	if err != nil {
		return FoldResult{}, "", err
	}

	if err := l.Train(ctx, train); err != nil {
		return FoldResult{}, "", err
	}
	pred, err := l.Predict(ctx, test)
	if err != nil {
		return FoldResult{}, "", err
	}

	scores := make(map[string]float64, len(measures))
	for _, m := range measures {
		score, err := m.Score(pred, test)
		if err != nil {
			return FoldResult{}, "", errors.Wrap(err, m.Name())
		}
		scores[m.Name()] = score
	}

	return FoldResult{Scores: scores}, l.Name(), nil
}
