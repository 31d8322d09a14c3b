// Package learner provides trainable models sharing a single
// train/predict contract, and the GraphLearner wrapper that gives a
// whole preprocessing flow plus terminal model that same contract.
// Anything accepting a Learner works identically with or without
// preprocessing involved.
package learner

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// Kind is the symbolic identifier of a learner family.
type Kind string

const (
	KindFeatureless Kind = "featureless"
	KindKNN         Kind = "knn"
	KindLinear      Kind = "linear"
	KindGraph       Kind = "graph"
)

// Learner is a trainable model. Predict must only be called after a
// successful Train and returns predictions aligned row-for-row with the
// input dataset.
type Learner interface {
	Name() string
	Kind() Kind
	Train(ctx context.Context, ds *dataset.Dataset) error
	Predict(ctx context.Context, ds *dataset.Dataset) (*Prediction, error)
	Trained() bool
}

// Prediction holds the per-row output of a learner: Response for
// regression, Labels for classification. Exactly one is populated.
type Prediction struct {
	Response []float64
	Labels   []string
}

// Len returns the number of predicted rows.
func (p *Prediction) Len() int {
	if len(p.Labels) > 0 {
		return len(p.Labels)
	}

	return len(p.Response)
}

var (
	ErrNotTrained         = errors.New("learner has not been trained")
	ErrLearnerMustBeSet   = errors.New("learner must be set")
	ErrNoTarget           = errors.New("dataset has no target column")
	ErrNoFeatures         = errors.New("dataset has no feature columns")
	ErrUnsupportedFeature = errors.New("unsupported feature column type")
	ErrMissingValues      = errors.New("features contain missing values, impute first")
	ErrFeatureMismatch    = errors.New("feature columns differ from training")
	ErrSingularMatrix     = errors.New("design matrix is singular")
)
