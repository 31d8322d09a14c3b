package operator

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// Select restricts a dataset to a subset of its columns. The subset is
// resolved once at fit time (keep list, drop list, or a type filter) and
// reapplied verbatim afterwards, so the columns reaching downstream
// operators never depend on the data seen at apply time. The target
// column is always kept.
type Select struct {
	name  string
	keep  []string
	drop  []string
	types []dataset.Type
	state *selectState
}

type selectState struct {
	columns []string
}

// SelectOption configures a Select operator.
type SelectOption func(*Select)

// SelectName overrides the operator name.
func SelectName(name string) SelectOption {
	return func(s *Select) { s.name = name }
}

// SelectKeep keeps exactly the named columns.
func SelectKeep(columns ...string) SelectOption {
	return func(s *Select) { s.keep = columns }
}

// SelectDrop drops the named columns and keeps the rest.
func SelectDrop(columns ...string) SelectOption {
	return func(s *Select) { s.drop = columns }
}

// SelectTypes keeps every column of one of the given types.
func SelectTypes(types ...dataset.Type) SelectOption {
	return func(s *Select) { s.types = types }
}

// NewSelect creates a column selector. With no options it is the
// identity operator.
func NewSelect(opts ...SelectOption) *Select {
	s := &Select{name: "select"}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Select) Name() string  { return s.name }
func (s *Select) Kind() Kind    { return KindSelect }
func (s *Select) Trained() bool { return s.state != nil }

// Fit resolves the kept column set against the training data and returns
// the restricted dataset.
func (s *Select) Fit(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}

	columns, err := s.resolve(ds)
	if err != nil {
		return nil, err
	}

	state := &selectState{columns: columns}
	out, err := s.restrict(ds, state)
	if err != nil {
		return nil, err
	}
	s.state = state

	return out, nil
}

// Apply restricts new data to the columns resolved at fit time.
func (s *Select) Apply(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if s.state == nil {
		return nil, errors.Wrap(ErrNotFitted, s.name)
	}

	return s.restrict(ds, s.state)
}

func (s *Select) resolve(ds *dataset.Dataset) ([]string, error) {
	switch {
	case len(s.keep) > 0:
		for _, name := range s.keep {
			if !ds.Has(name) {
				return nil, errors.Wrapf(dataset.ErrColumnNotFound, "%s: %q", s.name, name)
			}
		}

		return append([]string(nil), s.keep...), nil
	case len(s.drop) > 0:
		dropped := make(map[string]struct{}, len(s.drop))
		for _, name := range s.drop {
			if !ds.Has(name) {
				return nil, errors.Wrapf(dataset.ErrColumnNotFound, "%s: %q", s.name, name)
			}
			dropped[name] = struct{}{}
		}

		var kept []string
		for _, col := range ds.Columns() {
			if _, ok := dropped[col.Name]; ok && col.Name != ds.Target() {
				continue
			}
			kept = append(kept, col.Name)
		}

		return kept, nil
	case len(s.types) > 0:
		accepted := make(map[dataset.Type]struct{}, len(s.types))
		for _, t := range s.types {
			accepted[t] = struct{}{}
		}

		var kept []string
		for _, col := range ds.Columns() {
			if _, ok := accepted[col.Type]; ok || col.Name == ds.Target() {
				kept = append(kept, col.Name)
			}
		}
		if len(kept) == 0 {
			return nil, errors.Wrap(ErrNoColumns, s.name)
		}

		return kept, nil
	}

	return ds.Names(), nil
}

func (s *Select) restrict(ds *dataset.Dataset, state *selectState) (*dataset.Dataset, error) {
	out, err := ds.KeepColumns(state.columns...)
	if err != nil {
		return nil, errors.Wrap(err, s.name)
	}

	return out, nil
}

// SelectState is the serializable learned state of a Select operator.
type SelectState struct {
	Name    string
	Columns []string
}

// State exports the resolved column set of a fitted selector.
func (s *Select) State() (SelectState, error) {
	if s.state == nil {
		return SelectState{}, errors.Wrap(ErrNotFitted, s.name)
	}

	return SelectState{Name: s.name, Columns: s.state.columns}, nil
}

// SelectFromState rebuilds a fitted selector from exported state.
func SelectFromState(st SelectState) *Select {
	return &Select{
		name:  st.Name,
		keep:  st.Columns,
		state: &selectState{columns: st.Columns},
	}
}
