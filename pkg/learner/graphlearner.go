package learner

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
	"github.com/askiada/go-flowfit/pkg/flow"
)

// GraphLearner bundles a preprocessing flow with a terminal learner so
// the pair satisfies the Learner interface. Training fits the flow and
// trains the learner on its output; prediction pushes new data through
// the fitted flow before scoring. The combination can stand anywhere a
// bare learner can, including resampling.
type GraphLearner struct {
	flow    *flow.Flow
	base    Learner
	trained bool
}

// NewGraphLearner wraps a flow and a terminal learner.
func NewGraphLearner(f *flow.Flow, base Learner) (*GraphLearner, error) {
	if f == nil {
		return nil, flow.ErrFlowMustBeSet
	}
	if base == nil {
		return nil, ErrLearnerMustBeSet
	}

	return &GraphLearner{flow: f, base: base}, nil
}

// Name is the wrapped learner's name qualified with a graph prefix.
func (l *GraphLearner) Name() string { return "graph." + l.base.Name() }

func (l *GraphLearner) Kind() Kind { return KindGraph }

// Trained reports whether both the flow and the terminal learner have
// been trained through this wrapper.
func (l *GraphLearner) Trained() bool { return l.trained }

// Flow returns the wrapped preprocessing flow.
func (l *GraphLearner) Flow() *flow.Flow { return l.flow }

// Base returns the wrapped terminal learner.
func (l *GraphLearner) Base() Learner { return l.base }

// Train fits the flow on the dataset and trains the terminal learner on
// the transformed output. A failure in either phase leaves the wrapper
// untrained.
func (l *GraphLearner) Train(ctx context.Context, ds *dataset.Dataset) error {
	l.trained = false

	transformed, err := l.flow.Fit(ctx, ds)
	if err != nil {
		return errors.Wrap(err, l.Name())
	}
	if err := l.base.Train(ctx, transformed); err != nil {
		return errors.Wrap(err, l.Name())
	}

	l.trained = true

	return nil
}

// Predict applies the fitted flow and scores the result with the
// terminal learner.
func (l *GraphLearner) Predict(ctx context.Context, ds *dataset.Dataset) (*Prediction, error) {
	if !l.trained {
		return nil, errors.Wrap(ErrNotTrained, l.Name())
	}

	transformed, err := l.flow.Apply(ctx, ds)
	if err != nil {
		return nil, errors.Wrap(err, l.Name())
	}

	pred, err := l.base.Predict(ctx, transformed)
	if err != nil {
		return nil, errors.Wrap(err, l.Name())
	}

	return pred, nil
}

// Resume rebuilds a trained GraphLearner from a restored flow and
// learner. Both must already carry their learned state.
func Resume(f *flow.Flow, base Learner) (*GraphLearner, error) {
	gl, err := NewGraphLearner(f, base)
	if err != nil {
		return nil, err
	}
	if err := f.RestoreTrained(); err != nil {
		return nil, err
	}
	if !base.Trained() {
		return nil, errors.Wrap(ErrNotTrained, base.Name())
	}

	gl.trained = true

	return gl, nil
}
