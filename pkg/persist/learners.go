package persist

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/learner"
)

// marshalLearner encodes the learned state of a trained terminal
// learner.
func marshalLearner(l learner.Learner) ([]byte, error) {
	w := &writer{}

	switch typed := l.(type) {
	case *learner.Featureless:
		st, err := typed.State()
		if err != nil {
			return nil, err
		}
		w.Bool(st.Numeric)
		w.Float(st.Mean)
		w.String(st.Majority)
	case *learner.KNN:
		st, err := typed.State()
		if err != nil {
			return nil, err
		}
		w.Int(st.K)
		w.Strings(st.Names)
		w.FloatMatrix(st.Features)
		w.Strings(st.Labels)
	case *learner.Linear:
		st, err := typed.State()
		if err != nil {
			return nil, err
		}
		w.Strings(st.Names)
		w.Floats(st.Weights)
		w.Float(st.Intercept)
	default:
		return nil, errors.Wrapf(ErrUnknownLearner, "%q", l.Kind())
	}

	return w.buf, nil
}

// unmarshalLearner rebuilds a trained terminal learner from its encoded
// state.
func unmarshalLearner(kind learner.Kind, data []byte) (learner.Learner, error) {
	r := &reader{bs: data}

	var l learner.Learner
	switch kind {
	case learner.KindFeatureless:
		l = learner.FeaturelessFromState(learner.FeaturelessState{
			Numeric:  r.Bool(),
			Mean:     r.Float(),
			Majority: r.String(),
		})
	case learner.KindKNN:
		l = learner.KNNFromState(learner.KNNState{
			K:        r.Int(),
			Names:    r.Strings(),
			Features: r.FloatMatrix(),
			Labels:   r.Strings(),
		})
	case learner.KindLinear:
		l = learner.LinearFromState(learner.LinearState{
			Names:     r.Strings(),
			Weights:   r.Floats(),
			Intercept: r.Float(),
		})
	default:
		return nil, errors.Wrapf(ErrUnknownLearner, "%q", kind)
	}

	if r.err != nil {
		return nil, errors.Wrapf(r.err, "decode %q state", kind)
	}

	return l, nil
}
