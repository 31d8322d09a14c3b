package operator

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// ImputeStrategy selects the statistic used to fill missing values.
type ImputeStrategy uint8

const (
	// ImputeMean fills numeric columns with the training mean.
	ImputeMean ImputeStrategy = iota + 1
	// ImputeMedian fills numeric columns with the training median.
	ImputeMedian
	// ImputeMode fills numeric and categorical columns with the most
	// frequent training value.
	ImputeMode
	// ImputeConstant fills with a configured constant.
	ImputeConstant
)

// Imputer fills missing values using statistics learned from the
// training data. Mean and median apply to numeric columns only; mode and
// constant also cover categorical, ordered and text columns.
type Imputer struct {
	name        string
	columns     []string
	strategy    ImputeStrategy
	constantNum float64
	constantStr string
	indicators  bool
	state       *imputerState
}

type imputerState struct {
	columns []string
	numFill map[string]float64
	strFill map[string]string
}

// ImputerOption configures an Imputer.
type ImputerOption func(*Imputer)

// ImputerName overrides the operator name.
func ImputerName(name string) ImputerOption {
	return func(im *Imputer) { im.name = name }
}

// ImputerColumns restricts imputation to the given columns.
func ImputerColumns(columns ...string) ImputerOption {
	return func(im *Imputer) { im.columns = columns }
}

// ImputerStrategy selects the fill strategy. Default is ImputeMedian.
func ImputerStrategy(strategy ImputeStrategy) ImputerOption {
	return func(im *Imputer) { im.strategy = strategy }
}

// ImputerConstant sets the constants used by ImputeConstant.
func ImputerConstant(num float64, str string) ImputerOption {
	return func(im *Imputer) {
		im.constantNum = num
		im.constantStr = str
	}
}

// ImputerIndicators adds a <column>.missing indicator column for every
// imputed column, marking the rows that were filled.
func ImputerIndicators() ImputerOption {
	return func(im *Imputer) { im.indicators = true }
}

// NewImputer creates an imputer.
func NewImputer(opts ...ImputerOption) *Imputer {
	im := &Imputer{
		name:     "impute",
		strategy: ImputeMedian,
	}
	for _, opt := range opts {
		opt(im)
	}

	return im
}

func (im *Imputer) Name() string  { return im.name }
func (im *Imputer) Kind() Kind    { return KindImpute }
func (im *Imputer) Trained() bool { return im.state != nil }

func (im *Imputer) acceptedTypes() []dataset.Type {
	switch im.strategy {
	case ImputeMean, ImputeMedian:
		return []dataset.Type{dataset.Numeric}
	default:
		return []dataset.Type{dataset.Numeric, dataset.Categorical, dataset.Ordered, dataset.Text}
	}
}

// Fit learns the per-column fill values and returns the imputed training
// dataset. A column with no observed values cannot be imputed from data
// and fails the fit (except under ImputeConstant).
func (im *Imputer) Fit(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}

	columns, err := resolveColumns(ds, im.columns, im.acceptedTypes()...)
	if err != nil {
		return nil, errors.Wrap(err, im.name)
	}

	state := &imputerState{
		columns: columns,
		numFill: make(map[string]float64),
		strFill: make(map[string]string),
	}

	for _, name := range columns {
		col, err := ds.Column(name)
		if err != nil {
			return nil, errors.Wrap(err, im.name)
		}

		if col.Type == dataset.Numeric {
			fill, err := im.numericFill(name, col.Floats)
			if err != nil {
				return nil, err
			}
			state.numFill[name] = fill

			continue
		}

		fill, err := im.stringFill(name, col.Strs)
		if err != nil {
			return nil, err
		}
		state.strFill[name] = fill
	}

	out, err := im.impute(ds, state)
	if err != nil {
		return nil, err
	}
	im.state = state

	return out, nil
}

func (im *Imputer) numericFill(name string, values []float64) (float64, error) {
	if im.strategy == ImputeConstant {
		return im.constantNum, nil
	}

	seen := observed(values)
	if len(seen) == 0 {
		return 0, errors.Wrapf(ErrNoObservedValues, "%s: column %q", im.name, name)
	}

	switch im.strategy {
	case ImputeMean:
		return mean(seen), nil
	case ImputeMedian:
		return median(seen), nil
	default:
		return numericMode(seen), nil
	}
}

func (im *Imputer) stringFill(name string, values []string) (string, error) {
	if im.strategy == ImputeConstant {
		return im.constantStr, nil
	}

	seen := observedStrings(values)
	if len(seen) == 0 {
		return "", errors.Wrapf(ErrNoObservedValues, "%s: column %q", im.name, name)
	}

	return stringMode(seen), nil
}

// Apply fills missing values using the statistics captured at fit time.
func (im *Imputer) Apply(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if im.state == nil {
		return nil, errors.Wrap(ErrNotFitted, im.name)
	}

	return im.impute(ds, im.state)
}

func (im *Imputer) impute(ds *dataset.Dataset, state *imputerState) (*dataset.Dataset, error) {
	out := ds
	for _, name := range state.columns {
		col, err := ds.Column(name)
		if err != nil {
			return nil, errors.Wrap(err, im.name)
		}

		missing := make([]float64, col.Len())
		filled := dataset.Column{Name: col.Name, Type: col.Type}

		if col.Type == dataset.Numeric {
			fill, ok := state.numFill[name]
			if !ok {
				return nil, errors.Wrapf(dataset.ErrTypeMismatch, "%s: column %q changed type since fit", im.name, name)
			}
			values := make([]float64, len(col.Floats))
			for i, v := range col.Floats {
				if math.IsNaN(v) {
					values[i] = fill
					missing[i] = 1
				} else {
					values[i] = v
				}
			}
			filled.Floats = values
		} else {
			fill, ok := state.strFill[name]
			if !ok {
				return nil, errors.Wrapf(dataset.ErrTypeMismatch, "%s: column %q changed type since fit", im.name, name)
			}
			values := make([]string, len(col.Strs))
			for i, v := range col.Strs {
				if v == "" {
					values[i] = fill
					missing[i] = 1
				} else {
					values[i] = v
				}
			}
			filled.Strs = values
		}

		out, err = out.ReplaceColumn(filled)
		if err != nil {
			return nil, errors.Wrap(err, im.name)
		}
		if im.indicators {
			out, err = out.WithColumns(dataset.Num(name+".missing", missing))
			if err != nil {
				return nil, errors.Wrap(err, im.name)
			}
		}
	}

	return out, nil
}

// ImputerState is the serializable learned state of an Imputer.
type ImputerState struct {
	Name       string
	Strategy   ImputeStrategy
	Indicators bool
	Columns    []string
	NumFill    map[string]float64
	StrFill    map[string]string
}

// State exports the learned state of a fitted imputer.
func (im *Imputer) State() (ImputerState, error) {
	if im.state == nil {
		return ImputerState{}, errors.Wrap(ErrNotFitted, im.name)
	}

	return ImputerState{
		Name:       im.name,
		Strategy:   im.strategy,
		Indicators: im.indicators,
		Columns:    im.state.columns,
		NumFill:    im.state.numFill,
		StrFill:    im.state.strFill,
	}, nil
}

// ImputerFromState rebuilds a fitted imputer from exported state.
func ImputerFromState(st ImputerState) *Imputer {
	return &Imputer{
		name:       st.Name,
		columns:    st.Columns,
		strategy:   st.Strategy,
		indicators: st.Indicators,
		state: &imputerState{
			columns: st.Columns,
			numFill: st.NumFill,
			strFill: st.StrFill,
		},
	}
}
