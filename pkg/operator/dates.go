package operator

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// DatePart is one numeric feature derived from a timestamp column.
type DatePart uint8

const (
	PartYear DatePart = iota + 1
	PartMonth
	PartDay
	PartWeekday
	PartHour
)

func (p DatePart) String() string {
	switch p {
	case PartYear:
		return "year"
	case PartMonth:
		return "month"
	case PartDay:
		return "day"
	case PartWeekday:
		return "weekday"
	case PartHour:
		return "hour"
	}

	return "unknown"
}

// AllDateParts lists every supported date part in output order.
func AllDateParts() []DatePart {
	return []DatePart{PartYear, PartMonth, PartDay, PartWeekday, PartHour}
}

// DateFeatures derives numeric calendar features from timestamp columns.
// The source columns are dropped by default, since no terminal learner
// consumes raw timestamps.
type DateFeatures struct {
	name       string
	columns    []string
	parts      []DatePart
	keepSource bool
	state      *dateState
}

type dateState struct {
	columns []string
}

// DateFeaturesOption configures a DateFeatures operator.
type DateFeaturesOption func(*DateFeatures)

// DateFeaturesName overrides the operator name.
func DateFeaturesName(name string) DateFeaturesOption {
	return func(d *DateFeatures) { d.name = name }
}

// DateFeaturesColumns restricts the operator to the given timestamp
// columns. Without it, every timestamp non-target column is used.
func DateFeaturesColumns(columns ...string) DateFeaturesOption {
	return func(d *DateFeatures) { d.columns = columns }
}

// DateFeaturesParts selects the derived parts. Default is all parts.
func DateFeaturesParts(parts ...DatePart) DateFeaturesOption {
	return func(d *DateFeatures) { d.parts = parts }
}

// DateFeaturesKeepSource keeps the source timestamp columns in the output.
func DateFeaturesKeepSource() DateFeaturesOption {
	return func(d *DateFeatures) { d.keepSource = true }
}

// NewDateFeatures creates a date feature extractor.
func NewDateFeatures(opts ...DateFeaturesOption) *DateFeatures {
	d := &DateFeatures{
		name:  "datefeatures",
		parts: AllDateParts(),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *DateFeatures) Name() string  { return d.name }
func (d *DateFeatures) Kind() Kind    { return KindDateFeatures }
func (d *DateFeatures) Trained() bool { return d.state != nil }

// Fit binds the operator to the timestamp columns present in the
// training data and returns the transformed dataset.
func (d *DateFeatures) Fit(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}

	columns, err := resolveColumns(ds, d.columns, dataset.Timestamp)
	if err != nil {
		return nil, errors.Wrap(err, d.name)
	}

	state := &dateState{columns: columns}
	out, err := d.derive(ds, state)
	if err != nil {
		return nil, err
	}
	d.state = state

	return out, nil
}

// Apply derives the same features from new data.
func (d *DateFeatures) Apply(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if d.state == nil {
		return nil, errors.Wrap(ErrNotFitted, d.name)
	}

	return d.derive(ds, d.state)
}

func (d *DateFeatures) derive(ds *dataset.Dataset, state *dateState) (*dataset.Dataset, error) {
	out := ds
	for _, name := range state.columns {
		times, err := ds.Times(name)
		if err != nil {
			return nil, errors.Wrap(err, d.name)
		}

		cols := make([]dataset.Column, len(d.parts))
		for pi, part := range d.parts {
			values := make([]float64, len(times))
			for i, t := range times {
				if t.IsZero() {
					values[i] = math.NaN()

					continue
				}
				switch part {
				case PartYear:
					values[i] = float64(t.Year())
				case PartMonth:
					values[i] = float64(t.Month())
				case PartDay:
					values[i] = float64(t.Day())
				case PartWeekday:
					values[i] = float64(t.Weekday())
				case PartHour:
					values[i] = float64(t.Hour())
				}
			}
			cols[pi] = dataset.Num(name+"."+part.String(), values)
		}

		out, err = out.WithColumns(cols...)
		if err != nil {
			return nil, errors.Wrap(err, d.name)
		}
		if !d.keepSource {
			out, err = out.WithoutColumns(name)
			if err != nil {
				return nil, errors.Wrap(err, d.name)
			}
		}
	}

	return out, nil
}

// DateFeaturesState is the serializable learned state of a DateFeatures
// operator.
type DateFeaturesState struct {
	Name       string
	Columns    []string
	Parts      []DatePart
	KeepSource bool
}

// State exports the state of a fitted date feature extractor.
func (d *DateFeatures) State() (DateFeaturesState, error) {
	if d.state == nil {
		return DateFeaturesState{}, errors.Wrap(ErrNotFitted, d.name)
	}

	return DateFeaturesState{
		Name:       d.name,
		Columns:    d.state.columns,
		Parts:      d.parts,
		KeepSource: d.keepSource,
	}, nil
}

// DateFeaturesFromState rebuilds a fitted date feature extractor.
func DateFeaturesFromState(st DateFeaturesState) *DateFeatures {
	return &DateFeatures{
		name:       st.Name,
		columns:    st.Columns,
		parts:      st.Parts,
		keepSource: st.KeepSource,
		state:      &dateState{columns: st.Columns},
	}
}
