package learner

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// Linear is an ordinary-least-squares regressor over the numeric feature
// columns, with a numeric target and an intercept term.
type Linear struct {
	name  string
	state *linearState
}

type linearState struct {
	names     []string
	weights   []float64
	intercept float64
}

// NewLinear creates a linear regression learner.
func NewLinear() *Linear {
	return &Linear{name: "linear"}
}

func (l *Linear) Name() string  { return l.name }
func (l *Linear) Kind() Kind    { return KindLinear }
func (l *Linear) Trained() bool { return l.state != nil }

// Train solves the normal equations for the least-squares weights.
func (l *Linear) Train(ctx context.Context, ds *dataset.Dataset) error {
	if ds == nil {
		return dataset.ErrNilDataset
	}

	features, names, err := featureMatrix(ds)
	if err != nil {
		return errors.Wrap(err, l.name)
	}
	target, err := numericTarget(ds)
	if err != nil {
		return errors.Wrap(err, l.name)
	}

	// Augment with a constant column so the intercept is solved with the
	// rest of the weights.
	p := len(names) + 1
	design := make([][]float64, len(features))
	for i, row := range features {
		design[i] = append([]float64{1}, row...)
	}

	// X'X and X'y.
	xtx := make([][]float64, p)
	xty := make([]float64, p)
	for i := range xtx {
		xtx[i] = make([]float64, p)
	}
	for r, row := range design {
		for i := 0; i < p; i++ {
			xty[i] += row[i] * target[r]
			for j := 0; j < p; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}

	weights, err := solve(xtx, xty)
	if err != nil {
		return errors.Wrap(err, l.name)
	}

	l.state = &linearState{names: names, weights: weights[1:], intercept: weights[0]}

	return nil
}

// Predict evaluates the fitted linear model on every row.
func (l *Linear) Predict(ctx context.Context, ds *dataset.Dataset) (*Prediction, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if l.state == nil {
		return nil, errors.Wrap(ErrNotTrained, l.name)
	}

	features, names, err := featureMatrix(ds)
	if err != nil {
		return nil, errors.Wrap(err, l.name)
	}
	if err := checkFeatures(l.state.names, names); err != nil {
		return nil, errors.Wrap(err, l.name)
	}

	out := make([]float64, len(features))
	for i, row := range features {
		sum := l.state.intercept
		for j, w := range l.state.weights {
			sum += w * row[j]
		}
		out[i] = sum
	}

	return &Prediction{Response: out}, nil
}

// solve performs Gaussian elimination with partial pivoting on the
// augmented system a·x = b. A pivot at machine scale means the system is
// singular, which happens with perfectly collinear features.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, ErrSingularMatrix
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= a[i][j] * x[j]
		}
		x[i] = sum / a[i][i]
	}

	return x, nil
}

// LinearState is the serializable learned state of a Linear learner.
type LinearState struct {
	Names     []string
	Weights   []float64
	Intercept float64
}

// State exports the learned state of a trained Linear learner.
func (l *Linear) State() (LinearState, error) {
	if l.state == nil {
		return LinearState{}, errors.Wrap(ErrNotTrained, l.name)
	}

	return LinearState{Names: l.state.names, Weights: l.state.weights, Intercept: l.state.intercept}, nil
}

// LinearFromState rebuilds a trained Linear learner.
func LinearFromState(st LinearState) *Linear {
	return &Linear{
		name:  "linear",
		state: &linearState{names: st.Names, weights: st.Weights, intercept: st.Intercept},
	}
}
