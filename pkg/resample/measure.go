package resample

import (
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
	"github.com/askiada/go-flowfit/pkg/learner"
)

var (
	ErrNoPrediction   = errors.New("prediction is empty")
	ErrLengthMismatch = errors.New("prediction and truth lengths differ")
	ErrWrongTask      = errors.New("measure does not apply to this prediction type")
)

// Measure scores a prediction against the test split's target column.
type Measure interface {
	Name() string
	Score(pred *learner.Prediction, truth *dataset.Dataset) (float64, error)
}

// Accuracy is the fraction of correctly predicted labels.
type Accuracy struct{}

func (Accuracy) Name() string { return "accuracy" }

func (Accuracy) Score(pred *learner.Prediction, truth *dataset.Dataset) (float64, error) {
	labels, actual, err := labelPair(pred, truth)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := range labels {
		if labels[i] == actual[i] {
			correct++
		}
	}

	return float64(correct) / float64(len(labels)), nil
}

// RMSE is the root mean squared error of a numeric prediction.
type RMSE struct{}

func (RMSE) Name() string { return "rmse" }

func (RMSE) Score(pred *learner.Prediction, truth *dataset.Dataset) (float64, error) {
	response, actual, err := numericPair(pred, truth)
	if err != nil {
		return 0, err
	}

	sum := 0.0
	for i := range response {
		d := response[i] - actual[i]
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(response))), nil
}

// MAE is the mean absolute error of a numeric prediction.
type MAE struct{}

func (MAE) Name() string { return "mae" }

func (MAE) Score(pred *learner.Prediction, truth *dataset.Dataset) (float64, error) {
	response, actual, err := numericPair(pred, truth)
	if err != nil {
		return 0, err
	}

	sum := 0.0
	for i := range response {
		sum += math.Abs(response[i] - actual[i])
	}

	return sum / float64(len(response)), nil
}

// R2 is the coefficient of determination of a numeric prediction.
type R2 struct{}

func (R2) Name() string { return "r2" }

func (R2) Score(pred *learner.Prediction, truth *dataset.Dataset) (float64, error) {
	response, actual, err := numericPair(pred, truth)
	if err != nil {
		return 0, err
	}

	mean := 0.0
	for _, v := range actual {
		mean += v
	}
	mean /= float64(len(actual))

	resSum, totSum := 0.0, 0.0
	for i := range actual {
		d := actual[i] - response[i]
		resSum += d * d
		m := actual[i] - mean
		totSum += m * m
	}
	if totSum == 0 {
		return 0, nil
	}

	return 1 - resSum/totSum, nil
}

func numericPair(pred *learner.Prediction, truth *dataset.Dataset) ([]float64, []float64, error) {
	if pred == nil || pred.Len() == 0 {
		return nil, nil, ErrNoPrediction
	}
	if pred.Response == nil {
		return nil, nil, ErrWrongTask
	}

	name := truth.Target()
	if name == "" {
		return nil, nil, learner.ErrNoTarget
	}
	actual, err := truth.Numeric(name)
	if err != nil {
		return nil, nil, err
	}
	if len(actual) != len(pred.Response) {
		return nil, nil, ErrLengthMismatch
	}

	return pred.Response, actual, nil
}

func labelPair(pred *learner.Prediction, truth *dataset.Dataset) ([]string, []string, error) {
	if pred == nil || pred.Len() == 0 {
		return nil, nil, ErrNoPrediction
	}
	if pred.Labels == nil {
		return nil, nil, ErrWrongTask
	}

	name := truth.Target()
	if name == "" {
		return nil, nil, learner.ErrNoTarget
	}
	actual, err := truth.Strings(name)
	if err != nil {
		return nil, nil, err
	}
	if len(actual) != len(pred.Labels) {
		return nil, nil, ErrLengthMismatch
	}

	return pred.Labels, actual, nil
}
