package learner

import (
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// featureMatrix extracts the numeric non-target columns as a row-major
// matrix. Any non-numeric feature column or missing value is a hard
// error: a learner at the end of a flow expects fully encoded, fully
// imputed data.
func featureMatrix(ds *dataset.Dataset) ([][]float64, []string, error) {
	var names []string
	for _, col := range ds.Columns() {
		if col.Name == ds.Target() {
			continue
		}
		if col.Type != dataset.Numeric {
			return nil, nil, errors.Wrapf(ErrUnsupportedFeature, "column %q is %s", col.Name, col.Type)
		}
		names = append(names, col.Name)
	}
	if len(names) == 0 {
		return nil, nil, ErrNoFeatures
	}

	rows := ds.NumRows()
	matrix := make([][]float64, rows)
	for i := range matrix {
		matrix[i] = make([]float64, len(names))
	}

	for j, name := range names {
		values, err := ds.Numeric(name)
		if err != nil {
			return nil, nil, err
		}
		for i, v := range values {
			if math.IsNaN(v) {
				return nil, nil, errors.Wrapf(ErrMissingValues, "column %q row %d", name, i)
			}
			matrix[i][j] = v
		}
	}

	return matrix, names, nil
}

// checkFeatures verifies that the feature columns match the ones seen at
// training time, in the same order.
func checkFeatures(trained, got []string) error {
	if len(trained) != len(got) {
		return errors.Wrapf(ErrFeatureMismatch, "trained on %d columns, got %d", len(trained), len(got))
	}
	for i := range trained {
		if trained[i] != got[i] {
			return errors.Wrapf(ErrFeatureMismatch, "column %d is %q, want %q", i, got[i], trained[i])
		}
	}

	return nil
}

// numericTarget returns the target column of a numeric task.
func numericTarget(ds *dataset.Dataset) ([]float64, error) {
	if ds.Target() == "" {
		return nil, ErrNoTarget
	}

	values, err := ds.Numeric(ds.Target())
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, errors.Wrapf(ErrMissingValues, "target row %d", i)
		}
	}

	return values, nil
}

// labelTarget returns the target column of a classification task.
func labelTarget(ds *dataset.Dataset) ([]string, error) {
	if ds.Target() == "" {
		return nil, ErrNoTarget
	}

	values, err := ds.Strings(ds.Target())
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if v == "" {
			return nil, errors.Wrapf(ErrMissingValues, "target row %d", i)
		}
	}

	return values, nil
}
