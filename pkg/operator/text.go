package operator

import (
	"context"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// TextFeatures derives simple numeric features (character length, word
// count) from text columns. The source columns are dropped by default.
type TextFeatures struct {
	name       string
	columns    []string
	keepSource bool
	state      *textState
}

type textState struct {
	columns []string
}

// TextFeaturesOption configures a TextFeatures operator.
type TextFeaturesOption func(*TextFeatures)

// TextFeaturesName overrides the operator name.
func TextFeaturesName(name string) TextFeaturesOption {
	return func(t *TextFeatures) { t.name = name }
}

// TextFeaturesColumns restricts the operator to the given text columns.
// Without it, every text non-target column is used.
func TextFeaturesColumns(columns ...string) TextFeaturesOption {
	return func(t *TextFeatures) { t.columns = columns }
}

// TextFeaturesKeepSource keeps the source text columns in the output.
func TextFeaturesKeepSource() TextFeaturesOption {
	return func(t *TextFeatures) { t.keepSource = true }
}

// NewTextFeatures creates a text feature extractor.
func NewTextFeatures(opts ...TextFeaturesOption) *TextFeatures {
	t := &TextFeatures{name: "textfeatures"}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

func (t *TextFeatures) Name() string  { return t.name }
func (t *TextFeatures) Kind() Kind    { return KindTextFeatures }
func (t *TextFeatures) Trained() bool { return t.state != nil }

// Fit binds the operator to the text columns present in the training
// data and returns the transformed dataset.
func (t *TextFeatures) Fit(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}

	columns, err := resolveColumns(ds, t.columns, dataset.Text)
	if err != nil {
		return nil, errors.Wrap(err, t.name)
	}

	state := &textState{columns: columns}
	out, err := t.derive(ds, state)
	if err != nil {
		return nil, err
	}
	t.state = state

	return out, nil
}

// Apply derives the same features from new data.
func (t *TextFeatures) Apply(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if t.state == nil {
		return nil, errors.Wrap(ErrNotFitted, t.name)
	}

	return t.derive(ds, t.state)
}

func (t *TextFeatures) derive(ds *dataset.Dataset, state *textState) (*dataset.Dataset, error) {
	out := ds
	for _, name := range state.columns {
		values, err := ds.Strings(name)
		if err != nil {
			return nil, errors.Wrap(err, t.name)
		}

		lengths := make([]float64, len(values))
		words := make([]float64, len(values))
		for i, v := range values {
			if v == "" {
				lengths[i] = math.NaN()
				words[i] = math.NaN()

				continue
			}
			lengths[i] = float64(len([]rune(v)))
			words[i] = float64(len(strings.Fields(v)))
		}

		out, err = out.WithColumns(
			dataset.Num(name+".length", lengths),
			dataset.Num(name+".words", words),
		)
		if err != nil {
			return nil, errors.Wrap(err, t.name)
		}
		if !t.keepSource {
			out, err = out.WithoutColumns(name)
			if err != nil {
				return nil, errors.Wrap(err, t.name)
			}
		}
	}

	return out, nil
}

// TextFeaturesState is the serializable learned state of a TextFeatures
// operator.
type TextFeaturesState struct {
	Name       string
	Columns    []string
	KeepSource bool
}

// State exports the state of a fitted text feature extractor.
func (t *TextFeatures) State() (TextFeaturesState, error) {
	if t.state == nil {
		return TextFeaturesState{}, errors.Wrap(ErrNotFitted, t.name)
	}

	return TextFeaturesState{
		Name:       t.name,
		Columns:    t.state.columns,
		KeepSource: t.keepSource,
	}, nil
}

// TextFeaturesFromState rebuilds a fitted text feature extractor.
func TextFeaturesFromState(st TextFeaturesState) *TextFeatures {
	return &TextFeatures{
		name:       st.Name,
		columns:    st.Columns,
		keepSource: st.KeepSource,
		state:      &textState{columns: st.Columns},
	}
}
