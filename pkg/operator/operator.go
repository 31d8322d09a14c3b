// Package operator provides named, stateful dataset transforms with a
// two-phase lifecycle: Fit learns internal state from a training dataset
// and returns the transformed dataset, Apply reuses that state on new
// data. Learned state is immutable once fit and is only replaced by a
// later Fit. Operators never mutate their input dataset.
package operator

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// Kind is the symbolic identifier of an operator family. Kinds are
// compile-time constants so that pipeline construction and restoration
// never dispatch on free-form strings.
type Kind string

const (
	KindEncode       Kind = "encode"
	KindImpute       Kind = "impute"
	KindScale        Kind = "scale"
	KindDateFeatures Kind = "datefeatures"
	KindTextFeatures Kind = "textfeatures"
	KindTextEmbed    Kind = "textembed"
	KindSelect       Kind = "select"
)

// Operator is a single data transform in a flow.
//
// Apply must be called only after a successful Fit and uses exclusively
// the state captured at fit time. Both phases return a new dataset and
// leave the input untouched.
type Operator interface {
	Name() string
	Kind() Kind
	Fit(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error)
	Apply(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error)
	Trained() bool
}

var (
	ErrNotFitted        = errors.New("operator has not been fit")
	ErrUnseenLevel      = errors.New("level not seen during fit")
	ErrNoObservedValues = errors.New("column has no observed values")
	ErrNoColumns        = errors.New("no columns match the operator configuration")
	ErrNoEmbedder       = errors.New("embedder must be set")
	ErrEmbeddingWidth   = errors.New("embedding width differs from fit")
)

// resolveColumns returns the explicitly configured columns, or every
// non-target column of one of the accepted types when none are
// configured. Explicitly configured columns must exist and be of an
// accepted type.
func resolveColumns(ds *dataset.Dataset, configured []string, accepted ...dataset.Type) ([]string, error) {
	ok := func(t dataset.Type) bool {
		for _, a := range accepted {
			if t == a {
				return true
			}
		}

		return false
	}

	if len(configured) > 0 {
		for _, name := range configured {
			col, err := ds.Column(name)
			if err != nil {
				return nil, err
			}
			if !ok(col.Type) {
				return nil, errors.Wrapf(dataset.ErrTypeMismatch, "column %q is %s", name, col.Type)
			}
		}

		return append([]string(nil), configured...), nil
	}

	var resolved []string
	for _, col := range ds.Columns() {
		if col.Name == ds.Target() {
			continue
		}
		if ok(col.Type) {
			resolved = append(resolved, col.Name)
		}
	}

	return resolved, nil
}
