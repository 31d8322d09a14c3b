package learner

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// Featureless is the baseline learner: it ignores every feature and
// predicts the training target's mean (numeric target) or most frequent
// level (categorical target). Useful as the floor any real learner must
// beat.
type Featureless struct {
	name  string
	state *featurelessState
}

type featurelessState struct {
	numeric  bool
	mean     float64
	majority string
}

// NewFeatureless creates a featureless baseline learner.
func NewFeatureless() *Featureless {
	return &Featureless{name: "featureless"}
}

func (l *Featureless) Name() string  { return l.name }
func (l *Featureless) Kind() Kind    { return KindFeatureless }
func (l *Featureless) Trained() bool { return l.state != nil }

// Train learns the constant prediction from the target column.
func (l *Featureless) Train(ctx context.Context, ds *dataset.Dataset) error {
	if ds == nil {
		return dataset.ErrNilDataset
	}
	if ds.Target() == "" {
		return errors.Wrap(ErrNoTarget, l.name)
	}

	col, err := ds.Column(ds.Target())
	if err != nil {
		return errors.Wrap(err, l.name)
	}

	if col.Type == dataset.Numeric {
		values, err := numericTarget(ds)
		if err != nil {
			return errors.Wrap(err, l.name)
		}

		sum := 0.0
		for _, v := range values {
			sum += v
		}
		l.state = &featurelessState{numeric: true, mean: sum / float64(len(values))}

		return nil
	}

	labels, err := labelTarget(ds)
	if err != nil {
		return errors.Wrap(err, l.name)
	}

	counts := make(map[string]int, len(labels))
	for _, label := range labels {
		counts[label]++
	}
	best, bestCount := "", 0
	for label, count := range counts {
		if count > bestCount || (count == bestCount && label < best) {
			best, bestCount = label, count
		}
	}
	l.state = &featurelessState{majority: best}

	return nil
}

// Predict returns the learned constant for every row.
func (l *Featureless) Predict(ctx context.Context, ds *dataset.Dataset) (*Prediction, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if l.state == nil {
		return nil, errors.Wrap(ErrNotTrained, l.name)
	}

	rows := ds.NumRows()
	if l.state.numeric {
		out := make([]float64, rows)
		for i := range out {
			out[i] = l.state.mean
		}

		return &Prediction{Response: out}, nil
	}

	out := make([]string, rows)
	for i := range out {
		out[i] = l.state.majority
	}

	return &Prediction{Labels: out}, nil
}

// FeaturelessState is the serializable learned state of a Featureless
// learner.
type FeaturelessState struct {
	Numeric  bool
	Mean     float64
	Majority string
}

// State exports the learned state of a trained featureless learner.
func (l *Featureless) State() (FeaturelessState, error) {
	if l.state == nil {
		return FeaturelessState{}, errors.Wrap(ErrNotTrained, l.name)
	}

	return FeaturelessState{
		Numeric:  l.state.numeric,
		Mean:     l.state.mean,
		Majority: l.state.majority,
	}, nil
}

// FeaturelessFromState rebuilds a trained featureless learner.
func FeaturelessFromState(st FeaturelessState) *Featureless {
	return &Featureless{
		name: "featureless",
		state: &featurelessState{
			numeric:  st.Numeric,
			mean:     st.Mean,
			majority: st.Majority,
		},
	}
}
