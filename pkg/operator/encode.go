package operator

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// EncodeMethod selects how categorical levels become numeric columns.
type EncodeMethod uint8

const (
	// Treatment emits one indicator column per non-baseline level; the
	// baseline level (the first level in sorted order) encodes as all
	// zeros.
	Treatment EncodeMethod = iota + 1
	// OneHot emits one indicator column per level.
	OneHot
	// Frequency emits a single column holding the relative frequency of
	// the level in the training data.
	Frequency
)

// UnseenPolicy decides what happens when a level not seen during fit
// turns up at apply time.
type UnseenPolicy uint8

const (
	// UnseenFallback encodes unknown levels as all-zero indicators
	// (frequency zero for the Frequency method).
	UnseenFallback UnseenPolicy = iota + 1
	// UnseenError fails the apply.
	UnseenError
)

// Encoder turns categorical and ordered columns into numeric ones. The
// levels observed during fit are the only levels the encoder ever emits
// columns for; the source columns are dropped from the output.
type Encoder struct {
	name    string
	columns []string
	method  EncodeMethod
	unseen  UnseenPolicy
	state   *encoderState
}

type encoderState struct {
	columns []string
	levels  map[string][]string
	freqs   map[string]map[string]float64
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// EncoderName overrides the operator name.
func EncoderName(name string) EncoderOption {
	return func(e *Encoder) { e.name = name }
}

// EncoderColumns restricts encoding to the given columns. Without it,
// every categorical and ordered non-target column is encoded.
func EncoderColumns(columns ...string) EncoderOption {
	return func(e *Encoder) { e.columns = columns }
}

// EncoderMethod selects the encoding method. Default is Treatment.
func EncoderMethod(method EncodeMethod) EncoderOption {
	return func(e *Encoder) { e.method = method }
}

// EncoderUnseen selects the unseen-level policy. Default is UnseenFallback.
func EncoderUnseen(policy UnseenPolicy) EncoderOption {
	return func(e *Encoder) { e.unseen = policy }
}

// NewEncoder creates a categorical encoder.
func NewEncoder(opts ...EncoderOption) *Encoder {
	enc := &Encoder{
		name:   "encode",
		method: Treatment,
		unseen: UnseenFallback,
	}
	for _, opt := range opts {
		opt(enc)
	}

	return enc
}

func (e *Encoder) Name() string  { return e.name }
func (e *Encoder) Kind() Kind    { return KindEncode }
func (e *Encoder) Trained() bool { return e.state != nil }

// Fit records the distinct levels (and, for Frequency, the level
// frequencies) of every encoded column and returns the encoded training
// dataset.
func (e *Encoder) Fit(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}

	columns, err := resolveColumns(ds, e.columns, dataset.Categorical, dataset.Ordered)
	if err != nil {
		return nil, errors.Wrap(err, e.name)
	}

	state := &encoderState{
		columns: columns,
		levels:  make(map[string][]string, len(columns)),
		freqs:   make(map[string]map[string]float64, len(columns)),
	}

	for _, name := range columns {
		values, err := ds.Strings(name)
		if err != nil {
			return nil, errors.Wrap(err, e.name)
		}

		counts := make(map[string]float64)
		for _, v := range observedStrings(values) {
			counts[v]++
		}
		if len(counts) == 0 {
			return nil, errors.Wrapf(ErrNoObservedValues, "%s: column %q", e.name, name)
		}

		levels := make([]string, 0, len(counts))
		for level := range counts {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		state.levels[name] = levels

		freqs := make(map[string]float64, len(counts))
		for level, count := range counts {
			freqs[level] = count / float64(len(values))
		}
		state.freqs[name] = freqs
	}

	out, err := e.encode(ds, state, true)
	if err != nil {
		return nil, err
	}
	e.state = state

	return out, nil
}

// Apply encodes new data using the levels captured at fit time.
func (e *Encoder) Apply(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if e.state == nil {
		return nil, errors.Wrap(ErrNotFitted, e.name)
	}

	return e.encode(ds, e.state, false)
}

func (e *Encoder) encode(ds *dataset.Dataset, state *encoderState, fitting bool) (*dataset.Dataset, error) {
	out := ds
	for _, name := range state.columns {
		values, err := ds.Strings(name)
		if err != nil {
			return nil, errors.Wrap(err, e.name)
		}

		var cols []dataset.Column
		switch e.method {
		case Frequency:
			cols, err = e.encodeFrequency(name, values, state, fitting)
		default:
			cols, err = e.encodeIndicators(name, values, state, fitting)
		}
		if err != nil {
			return nil, err
		}

		out, err = out.WithoutColumns(name)
		if err != nil {
			return nil, errors.Wrap(err, e.name)
		}
		out, err = out.WithColumns(cols...)
		if err != nil {
			return nil, errors.Wrap(err, e.name)
		}
	}

	return out, nil
}

func (e *Encoder) encodeIndicators(name string, values []string, state *encoderState, fitting bool) ([]dataset.Column, error) {
	levels := state.levels[name]
	emitted := levels
	if e.method == Treatment {
		emitted = levels[1:]
	}

	index := make(map[string]int, len(emitted))
	for i, level := range emitted {
		index[level] = i
	}
	known := make(map[string]struct{}, len(levels))
	for _, level := range levels {
		known[level] = struct{}{}
	}

	indicators := make([][]float64, len(emitted))
	for i := range indicators {
		indicators[i] = make([]float64, len(values))
	}

	for row, v := range values {
		if v == "" {
			for i := range indicators {
				indicators[i][row] = math.NaN()
			}

			continue
		}
		if _, ok := known[v]; !ok {
			if !fitting && e.unseen == UnseenError {
				return nil, errors.Wrapf(ErrUnseenLevel, "%s: column %q level %q", e.name, name, v)
			}

			continue
		}
		if i, ok := index[v]; ok {
			indicators[i][row] = 1
		}
	}

	cols := make([]dataset.Column, len(emitted))
	for i, level := range emitted {
		cols[i] = dataset.Num(name+"."+level, indicators[i])
	}

	return cols, nil
}

func (e *Encoder) encodeFrequency(name string, values []string, state *encoderState, fitting bool) ([]dataset.Column, error) {
	freqs := state.freqs[name]

	out := make([]float64, len(values))
	for row, v := range values {
		if v == "" {
			out[row] = math.NaN()

			continue
		}
		freq, ok := freqs[v]
		if !ok {
			if !fitting && e.unseen == UnseenError {
				return nil, errors.Wrapf(ErrUnseenLevel, "%s: column %q level %q", e.name, name, v)
			}
			freq = 0
		}
		out[row] = freq
	}

	return []dataset.Column{dataset.Num(name+".freq", out)}, nil
}

// EncoderState is the serializable learned state of an Encoder.
type EncoderState struct {
	Name    string
	Method  EncodeMethod
	Unseen  UnseenPolicy
	Columns []string
	Levels  map[string][]string
	Freqs   map[string]map[string]float64
}

// State exports the learned state of a fitted encoder.
func (e *Encoder) State() (EncoderState, error) {
	if e.state == nil {
		return EncoderState{}, errors.Wrap(ErrNotFitted, e.name)
	}

	return EncoderState{
		Name:    e.name,
		Method:  e.method,
		Unseen:  e.unseen,
		Columns: e.state.columns,
		Levels:  e.state.levels,
		Freqs:   e.state.freqs,
	}, nil
}

// EncoderFromState rebuilds a fitted encoder from exported state.
func EncoderFromState(st EncoderState) *Encoder {
	return &Encoder{
		name:    st.Name,
		columns: st.Columns,
		method:  st.Method,
		unseen:  st.Unseen,
		state: &encoderState{
			columns: st.Columns,
			levels:  st.Levels,
			freqs:   st.Freqs,
		},
	}
}
