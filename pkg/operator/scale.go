package operator

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// ScaleMethod selects how numeric columns are rescaled.
type ScaleMethod uint8

const (
	// ScaleStandard centers on the mean and divides by the standard deviation.
	ScaleStandard ScaleMethod = iota + 1
	// ScaleMinMax maps the training range onto [0, 1].
	ScaleMinMax
	// ScaleRobust centers on the median and divides by the interquartile range.
	ScaleRobust
)

// Scaler rescales numeric columns using statistics learned at fit time.
// A column that is constant in the training data scales to zero.
type Scaler struct {
	name    string
	columns []string
	method  ScaleMethod
	state   *scalerState
}

type scalerState struct {
	columns []string
	center  map[string]float64
	scale   map[string]float64
}

// ScalerOption configures a Scaler.
type ScalerOption func(*Scaler)

// ScalerName overrides the operator name.
func ScalerName(name string) ScalerOption {
	return func(s *Scaler) { s.name = name }
}

// ScalerColumns restricts scaling to the given columns. Without it, every
// numeric non-target column is scaled.
func ScalerColumns(columns ...string) ScalerOption {
	return func(s *Scaler) { s.columns = columns }
}

// ScalerMethod selects the scaling method. Default is ScaleStandard.
func ScalerMethod(method ScaleMethod) ScalerOption {
	return func(s *Scaler) { s.method = method }
}

// NewScaler creates a numeric scaler.
func NewScaler(opts ...ScalerOption) *Scaler {
	sc := &Scaler{
		name:   "scale",
		method: ScaleStandard,
	}
	for _, opt := range opts {
		opt(sc)
	}

	return sc
}

func (s *Scaler) Name() string  { return s.name }
func (s *Scaler) Kind() Kind    { return KindScale }
func (s *Scaler) Trained() bool { return s.state != nil }

// Fit learns the per-column center and scale and returns the rescaled
// training dataset.
func (s *Scaler) Fit(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}

	columns, err := resolveColumns(ds, s.columns, dataset.Numeric)
	if err != nil {
		return nil, errors.Wrap(err, s.name)
	}

	state := &scalerState{
		columns: columns,
		center:  make(map[string]float64, len(columns)),
		scale:   make(map[string]float64, len(columns)),
	}

	for _, name := range columns {
		values, err := ds.Numeric(name)
		if err != nil {
			return nil, errors.Wrap(err, s.name)
		}

		seen := observed(values)
		if len(seen) == 0 {
			return nil, errors.Wrapf(ErrNoObservedValues, "%s: column %q", s.name, name)
		}

		switch s.method {
		case ScaleMinMax:
			lo, hi := minMax(seen)
			state.center[name] = lo
			state.scale[name] = hi - lo
		case ScaleRobust:
			state.center[name] = median(seen)
			state.scale[name] = percentile(seen, 75) - percentile(seen, 25)
		default:
			state.center[name] = mean(seen)
			state.scale[name] = std(seen)
		}
	}

	out, err := s.rescale(ds, state)
	if err != nil {
		return nil, err
	}
	s.state = state

	return out, nil
}

// Apply rescales new data using the statistics captured at fit time.
func (s *Scaler) Apply(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if s.state == nil {
		return nil, errors.Wrap(ErrNotFitted, s.name)
	}

	return s.rescale(ds, s.state)
}

func (s *Scaler) rescale(ds *dataset.Dataset, state *scalerState) (*dataset.Dataset, error) {
	out := ds
	for _, name := range state.columns {
		values, err := ds.Numeric(name)
		if err != nil {
			return nil, errors.Wrap(err, s.name)
		}

		center, scale := state.center[name], state.scale[name]
		scaled := make([]float64, len(values))
		for i, v := range values {
			switch {
			case math.IsNaN(v):
				scaled[i] = math.NaN()
			case scale == 0:
				scaled[i] = 0
			default:
				scaled[i] = (v - center) / scale
			}
		}

		out, err = out.ReplaceColumn(dataset.Num(name, scaled))
		if err != nil {
			return nil, errors.Wrap(err, s.name)
		}
	}

	return out, nil
}

// ScalerState is the serializable learned state of a Scaler.
type ScalerState struct {
	Name    string
	Method  ScaleMethod
	Columns []string
	Center  map[string]float64
	Scale   map[string]float64
}

// State exports the learned state of a fitted scaler.
func (s *Scaler) State() (ScalerState, error) {
	if s.state == nil {
		return ScalerState{}, errors.Wrap(ErrNotFitted, s.name)
	}

	return ScalerState{
		Name:    s.name,
		Method:  s.method,
		Columns: s.state.columns,
		Center:  s.state.center,
		Scale:   s.state.scale,
	}, nil
}

// ScalerFromState rebuilds a fitted scaler from exported state.
func ScalerFromState(st ScalerState) *Scaler {
	return &Scaler{
		name:    st.Name,
		columns: st.Columns,
		method:  st.Method,
		state: &scalerState{
			columns: st.Columns,
			center:  st.Center,
			scale:   st.Scale,
		},
	}
}
