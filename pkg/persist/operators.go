package persist

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/operator"
)

// marshalOperator encodes the learned state of a fitted operator.
func marshalOperator(op operator.Operator) ([]byte, error) {
	w := &writer{}

	switch typed := op.(type) {
	case *operator.Encoder:
		st, err := typed.State()
		if err != nil {
			return nil, err
		}
		w.String(st.Name)
		w.Int(int(st.Method))
		w.Int(int(st.Unseen))
		w.Strings(st.Columns)
		writeLevels(w, st.Levels)
		writeFreqs(w, st.Freqs)
	case *operator.Imputer:
		st, err := typed.State()
		if err != nil {
			return nil, err
		}
		w.String(st.Name)
		w.Int(int(st.Strategy))
		w.Bool(st.Indicators)
		w.Strings(st.Columns)
		w.StringFloatMap(st.NumFill)
		w.StringStringMap(st.StrFill)
	case *operator.Scaler:
		st, err := typed.State()
		if err != nil {
			return nil, err
		}
		w.String(st.Name)
		w.Int(int(st.Method))
		w.Strings(st.Columns)
		w.StringFloatMap(st.Center)
		w.StringFloatMap(st.Scale)
	case *operator.DateFeatures:
		st, err := typed.State()
		if err != nil {
			return nil, err
		}
		w.String(st.Name)
		w.Strings(st.Columns)
		w.Int(len(st.Parts))
		for _, part := range st.Parts {
			w.Int(int(part))
		}
		w.Bool(st.KeepSource)
	case *operator.TextFeatures:
		st, err := typed.State()
		if err != nil {
			return nil, err
		}
		w.String(st.Name)
		w.Strings(st.Columns)
		w.Bool(st.KeepSource)
	case *operator.TextEmbed:
		st, err := typed.State()
		if err != nil {
			return nil, err
		}
		w.String(st.Name)
		w.String(st.Column)
		w.Int(st.Width)
		w.Bool(st.KeepSource)
	case *operator.Select:
		st, err := typed.State()
		if err != nil {
			return nil, err
		}
		w.String(st.Name)
		w.Strings(st.Columns)
	default:
		return nil, errors.Wrapf(ErrUnknownOperator, "%q", op.Kind())
	}

	return w.buf, nil
}

// unmarshalOperator rebuilds a fitted operator from its encoded state.
func unmarshalOperator(kind operator.Kind, data []byte, cfg *config) (operator.Operator, error) {
	r := &reader{bs: data}

	var op operator.Operator
	switch kind {
	case operator.KindEncode:
		st := operator.EncoderState{
			Name:    r.String(),
			Method:  operator.EncodeMethod(r.Int()),
			Unseen:  operator.UnseenPolicy(r.Int()),
			Columns: r.Strings(),
			Levels:  readLevels(r),
			Freqs:   readFreqs(r),
		}
		op = operator.EncoderFromState(st)
	case operator.KindImpute:
		st := operator.ImputerState{
			Name:       r.String(),
			Strategy:   operator.ImputeStrategy(r.Int()),
			Indicators: r.Bool(),
			Columns:    r.Strings(),
			NumFill:    r.StringFloatMap(),
			StrFill:    r.StringStringMap(),
		}
		op = operator.ImputerFromState(st)
	case operator.KindScale:
		st := operator.ScalerState{
			Name:    r.String(),
			Method:  operator.ScaleMethod(r.Int()),
			Columns: r.Strings(),
			Center:  r.StringFloatMap(),
			Scale:   r.StringFloatMap(),
		}
		op = operator.ScalerFromState(st)
	case operator.KindDateFeatures:
		st := operator.DateFeaturesState{
			Name:    r.String(),
			Columns: r.Strings(),
		}
		nParts := r.Int()
		for i := 0; i < nParts; i++ {
			st.Parts = append(st.Parts, operator.DatePart(r.Int()))
		}
		st.KeepSource = r.Bool()
		op = operator.DateFeaturesFromState(st)
	case operator.KindTextFeatures:
		st := operator.TextFeaturesState{
			Name:       r.String(),
			Columns:    r.Strings(),
			KeepSource: r.Bool(),
		}
		op = operator.TextFeaturesFromState(st)
	case operator.KindTextEmbed:
		st := operator.TextEmbedState{
			Name:       r.String(),
			Column:     r.String(),
			Width:      r.Int(),
			KeepSource: r.Bool(),
		}
		restored := operator.TextEmbedFromState(st)
		if cfg.embedder != nil {
			restored.SetEmbedder(cfg.embedder)
		}
		op = restored
	case operator.KindSelect:
		st := operator.SelectState{
			Name:    r.String(),
			Columns: r.Strings(),
		}
		op = operator.SelectFromState(st)
	default:
		return nil, errors.Wrapf(ErrUnknownOperator, "%q", kind)
	}

	if r.err != nil {
		return nil, errors.Wrapf(r.err, "decode %q state", kind)
	}

	return op, nil
}

func writeLevels(w *writer, levels map[string][]string) {
	keys := sortedKeys(levels)
	w.Strings(keys)
	for _, k := range keys {
		w.Strings(levels[k])
	}
}

func readLevels(r *reader) map[string][]string {
	keys := r.Strings()
	levels := make(map[string][]string, len(keys))
	for _, k := range keys {
		levels[k] = r.Strings()
	}

	return levels
}

func writeFreqs(w *writer, freqs map[string]map[string]float64) {
	keys := sortedKeys(freqs)
	w.Strings(keys)
	for _, k := range keys {
		w.StringFloatMap(freqs[k])
	}
}

func readFreqs(r *reader) map[string]map[string]float64 {
	keys := r.Strings()
	freqs := make(map[string]map[string]float64, len(keys))
	for _, k := range keys {
		freqs[k] = r.StringFloatMap()
	}

	return freqs
}
