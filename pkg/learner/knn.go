package learner

import (
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// KNN is a k-nearest-neighbour classifier over the numeric feature
// columns, with a categorical target. Training stores the data; the work
// happens at prediction time.
type KNN struct {
	name  string
	k     int
	state *knnState
}

type knnState struct {
	features [][]float64
	labels   []string
	names    []string
}

// KNNOption configures a KNN learner.
type KNNOption func(*KNN)

// KNNNeighbours sets the number of neighbours. Default is 3.
func KNNNeighbours(k int) KNNOption {
	return func(l *KNN) {
		if k > 0 {
			l.k = k
		}
	}
}

// NewKNN creates a k-nearest-neighbour classifier.
func NewKNN(opts ...KNNOption) *KNN {
	l := &KNN{name: "knn", k: 3}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *KNN) Name() string  { return l.name }
func (l *KNN) Kind() Kind    { return KindKNN }
func (l *KNN) Trained() bool { return l.state != nil }

// Train stores the feature matrix and target labels.
func (l *KNN) Train(ctx context.Context, ds *dataset.Dataset) error {
	if ds == nil {
		return dataset.ErrNilDataset
	}

	features, names, err := featureMatrix(ds)
	if err != nil {
		return errors.Wrap(err, l.name)
	}
	labels, err := labelTarget(ds)
	if err != nil {
		return errors.Wrap(err, l.name)
	}

	l.state = &knnState{features: features, labels: labels, names: names}

	return nil
}

// Predict classifies every row by majority vote among its k nearest
// training rows. Rows are scored concurrently, one worker per CPU.
func (l *KNN) Predict(ctx context.Context, ds *dataset.Dataset) (*Prediction, error) {
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

	out := make([]string, len(features))

	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(runtime.GOMAXPROCS(0))
	for i := range features {
		grp.Go(func() error {
			out[i] = l.predictRow(features[i])

			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, errors.Wrap(err, l.name)
	}

	return &Prediction{Labels: out}, nil
}

func (l *KNN) predictRow(row []float64) string {
	type neighbour struct {
		dist  float64
		label string
	}

	neighbours := make([]neighbour, len(l.state.features))
	for i, train := range l.state.features {
		sum := 0.0
		for j := range row {
			d := row[j] - train[j]
			sum += d * d
		}
		neighbours[i] = neighbour{dist: math.Sqrt(sum), label: l.state.labels[i]}
	}

	sort.Slice(neighbours, func(i, j int) bool { return neighbours[i].dist < neighbours[j].dist })

	k := l.k
	if k > len(neighbours) {
		k = len(neighbours)
	}

	votes := make(map[string]int, k)
	for _, n := range neighbours[:k] {
		votes[n.label]++
	}

	best, bestCount := "", 0
	for label, count := range votes {
		if count > bestCount || (count == bestCount && label < best) {
			best, bestCount = label, count
		}
	}

	return best
}

// KNNState is the serializable learned state of a KNN learner.
type KNNState struct {
	K        int
	Names    []string
	Features [][]float64
	Labels   []string
}

// State exports the learned state of a trained KNN learner.
func (l *KNN) State() (KNNState, error) {
	if l.state == nil {
		return KNNState{}, errors.Wrap(ErrNotTrained, l.name)
	}

	return KNNState{
		K:        l.k,
		Names:    l.state.names,
		Features: l.state.features,
		Labels:   l.state.labels,
	}, nil
}

// KNNFromState rebuilds a trained KNN learner.
func KNNFromState(st KNNState) *KNN {
	return &KNN{
		name: "knn",
		k:    st.K,
		state: &knnState{
			features: st.Features,
			labels:   st.Labels,
			names:    st.Names,
		},
	}
}
