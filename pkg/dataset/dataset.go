// Package dataset provides the column-typed table every operator and
// learner in this module consumes and produces.
//
// A Dataset is a collection of named columns with one optional target
// column. Every column carries a declared semantic type, and that type
// decides which operators may act on it. Datasets are treated as
// immutable: transforming code always returns a new Dataset and must
// never write into the value slices of an existing one.
package dataset

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Type is the declared semantic type of a column.
type Type uint8

const (
	// Numeric is a float64 column. Missing values are NaN.
	Numeric Type = iota + 1
	// Categorical is an unordered string-level column. Missing values are "".
	Categorical
	// Ordered is a categorical column whose levels carry an order.
	Ordered
	// Text is a free-form string column. Missing values are "".
	Text
	// Timestamp is a time column. Missing values are the zero time.
	Timestamp
)

func (t Type) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Ordered:
		return "ordered"
	case Text:
		return "text"
	case Timestamp:
		return "timestamp"
	}

	return "unknown"
}

// TypeFromString parses the string form produced by Type.String.
func TypeFromString(s string) (Type, error) {
	switch s {
	case "numeric":
		return Numeric, nil
	case "categorical":
		return Categorical, nil
	case "ordered":
		return Ordered, nil
	case "text":
		return Text, nil
	case "timestamp":
		return Timestamp, nil
	}

	return 0, errors.Wrapf(ErrUnknownType, "%q", s)
}

// Column is a single named, typed column. Exactly one of the value
// slices is populated, matching the declared type.
type Column struct {
	Name   string
	Type   Type
	Floats []float64
	Strs   []string
	Times  []time.Time
}

// Num builds a numeric column.
func Num(name string, values []float64) Column {
	return Column{Name: name, Type: Numeric, Floats: values}
}

// Cat builds an unordered categorical column.
func Cat(name string, values []string) Column {
	return Column{Name: name, Type: Categorical, Strs: values}
}

// Ord builds an ordered categorical column.
func Ord(name string, values []string) Column {
	return Column{Name: name, Type: Ordered, Strs: values}
}

// Txt builds a free-form text column.
func Txt(name string, values []string) Column {
	return Column{Name: name, Type: Text, Strs: values}
}

// Stamp builds a timestamp column.
func Stamp(name string, values []time.Time) Column {
	return Column{Name: name, Type: Timestamp, Times: values}
}

// Len returns the number of rows in the column.
func (c Column) Len() int {
	switch c.Type {
	case Numeric:
		return len(c.Floats)
	case Timestamp:
		return len(c.Times)
	default:
		return len(c.Strs)
	}
}

// IsMissing reports whether the value at row i is the missing marker for
// the column type.
func (c Column) IsMissing(i int) bool {
	switch c.Type {
	case Numeric:
		return math.IsNaN(c.Floats[i])
	case Timestamp:
		return c.Times[i].IsZero()
	default:
		return c.Strs[i] == ""
	}
}

// Equal reports whether two columns carry the same name, type and
// values. Missing markers compare equal, so NaN matches NaN.
func (c Column) Equal(other Column) bool {
	if c.Name != other.Name || c.Type != other.Type || c.Len() != other.Len() {
		return false
	}

	switch c.Type {
	case Numeric:
		for i, v := range c.Floats {
			if v != other.Floats[i] && !(math.IsNaN(v) && math.IsNaN(other.Floats[i])) {
				return false
			}
		}
	case Timestamp:
		for i, v := range c.Times {
			if !v.Equal(other.Times[i]) {
				return false
			}
		}
	default:
		for i, v := range c.Strs {
			if v != other.Strs[i] {
				return false
			}
		}
	}

	return true
}

func (c Column) validate() error {
	if c.Name == "" {
		return ErrEmptyColumnName
	}

	switch c.Type {
	case Numeric, Categorical, Ordered, Text, Timestamp:
		return nil
	}

	return errors.Wrapf(ErrUnknownType, "column %q", c.Name)
}

func (c Column) clone() Column {
	out := Column{Name: c.Name, Type: c.Type}

	switch c.Type {
	case Numeric:
		out.Floats = append([]float64(nil), c.Floats...)
	case Timestamp:
		out.Times = append([]time.Time(nil), c.Times...)
	default:
		out.Strs = append([]string(nil), c.Strs...)
	}

	return out
}

// Dataset is a table of typed columns with at most one target column.
type Dataset struct {
	cols   []Column
	index  map[string]int
	target string
}

// New builds a dataset from the given columns. All columns must have the
// same length and unique, non-empty names.
func New(cols ...Column) (*Dataset, error) {
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}

	ds := &Dataset{
		cols:  make([]Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}

	rows := cols[0].Len()
	for _, col := range cols {
		if err := col.validate(); err != nil {
			return nil, err
		}
		if col.Len() != rows {
			return nil, errors.Wrapf(ErrRowMismatch, "column %q has %d rows, want %d", col.Name, col.Len(), rows)
		}
		if _, ok := ds.index[col.Name]; ok {
			return nil, errors.Wrapf(ErrDuplicateColumn, "%q", col.Name)
		}

		ds.index[col.Name] = len(ds.cols)
		ds.cols = append(ds.cols, col)
	}

	return ds, nil
}

// SetTarget marks an existing column as the supervised target.
func (d *Dataset) SetTarget(name string) error {
	if _, ok := d.index[name]; !ok {
		return errors.Wrapf(ErrColumnNotFound, "target %q", name)
	}
	d.target = name

	return nil
}

// Target returns the target column name, or "" when none is set.
func (d *Dataset) Target() string { return d.target }

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int {
	if len(d.cols) == 0 {
		return 0
	}

	return d.cols[0].Len()
}

// Names returns the column names in declaration order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.cols))
	for i, col := range d.cols {
		names[i] = col.Name
	}

	return names
}

// Has reports whether a column with the given name exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]

	return ok
}

// Column returns the column with the given name.
func (d *Dataset) Column(name string) (Column, error) {
	idx, ok := d.index[name]
	if !ok {
		return Column{}, errors.Wrapf(ErrColumnNotFound, "%q", name)
	}

	return d.cols[idx], nil
}

// Columns returns all columns in declaration order. The returned slice is
// a copy, the value slices are shared.
func (d *Dataset) Columns() []Column {
	return append([]Column(nil), d.cols...)
}

// Numeric returns the float values of a numeric column.
func (d *Dataset) Numeric(name string) ([]float64, error) {
	col, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	if col.Type != Numeric {
		return nil, errors.Wrapf(ErrTypeMismatch, "column %q is %s, want numeric", name, col.Type)
	}

	return col.Floats, nil
}

// Strings returns the string values of a categorical, ordered or text column.
func (d *Dataset) Strings(name string) ([]string, error) {
	col, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	if col.Type != Categorical && col.Type != Ordered && col.Type != Text {
		return nil, errors.Wrapf(ErrTypeMismatch, "column %q is %s, want a string type", name, col.Type)
	}

	return col.Strs, nil
}

// Times returns the values of a timestamp column.
func (d *Dataset) Times(name string) ([]time.Time, error) {
	col, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	if col.Type != Timestamp {
		return nil, errors.Wrapf(ErrTypeMismatch, "column %q is %s, want timestamp", name, col.Type)
	}

	return col.Times, nil
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		cols:   make([]Column, len(d.cols)),
		index:  make(map[string]int, len(d.index)),
		target: d.target,
	}
	for i, col := range d.cols {
		out.cols[i] = col.clone()
		out.index[col.Name] = i
	}

	return out
}

// WithColumns returns a new dataset with the given columns appended.
func (d *Dataset) WithColumns(cols ...Column) (*Dataset, error) {
	out, err := New(append(d.Columns(), cols...)...)
	if err != nil {
		return nil, err
	}
	out.target = d.target

	return out, nil
}

// ReplaceColumn returns a new dataset where the column with the same name
// is replaced by col.
func (d *Dataset) ReplaceColumn(col Column) (*Dataset, error) {
	if _, ok := d.index[col.Name]; !ok {
		return nil, errors.Wrapf(ErrColumnNotFound, "%q", col.Name)
	}

	cols := d.Columns()
	cols[d.index[col.Name]] = col

	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.target = d.target

	return out, nil
}

// WithoutColumns returns a new dataset without the named columns.
// Dropping the target column clears the target.
func (d *Dataset) WithoutColumns(names ...string) (*Dataset, error) {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := d.index[name]; !ok {
			return nil, errors.Wrapf(ErrColumnNotFound, "%q", name)
		}
		drop[name] = struct{}{}
	}

	kept := make([]Column, 0, len(d.cols))
	for _, col := range d.cols {
		if _, ok := drop[col.Name]; ok {
			continue
		}
		kept = append(kept, col)
	}

	out, err := New(kept...)
	if err != nil {
		return nil, err
	}
	if _, dropped := drop[d.target]; !dropped {
		out.target = d.target
	}

	return out, nil
}

// KeepColumns returns a new dataset containing only the named columns, in
// the given order. The target column is always kept.
func (d *Dataset) KeepColumns(names ...string) (*Dataset, error) {
	kept := make([]Column, 0, len(names)+1)
	seen := make(map[string]struct{}, len(names)+1)

	for _, name := range names {
		col, err := d.Column(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		kept = append(kept, col)
	}

	if d.target != "" {
		if _, ok := seen[d.target]; !ok {
			col, err := d.Column(d.target)
			if err != nil {
				return nil, err
			}
			kept = append(kept, col)
		}
	}

	out, err := New(kept...)
	if err != nil {
		return nil, err
	}
	out.target = d.target

	return out, nil
}

// Bind returns a new dataset with the columns of other appended
// column-wise. Both datasets must have the same row count; overlapping
// column names are an error. The row order of both sides is assumed to be
// aligned, which holds for any pair of outputs derived from the same
// upstream dataset.
func (d *Dataset) Bind(other *Dataset) (*Dataset, error) {
	if other == nil {
		return nil, ErrNilDataset
	}
	if d.NumRows() != other.NumRows() {
		return nil, errors.Wrapf(ErrRowMismatch, "%d rows vs %d rows", d.NumRows(), other.NumRows())
	}

	out, err := New(append(d.Columns(), other.Columns()...)...)
	if err != nil {
		return nil, err
	}
	out.target = d.target
	if out.target == "" {
		out.target = other.target
	}

	return out, nil
}

// Subset returns a new dataset containing the given rows, in the given
// order. Row indices may repeat.
func (d *Dataset) Subset(rows []int) (*Dataset, error) {
	n := d.NumRows()
	for _, r := range rows {
		if r < 0 || r >= n {
			return nil, errors.Wrapf(ErrRowOutOfRange, "row %d of %d", r, n)
		}
	}

	cols := make([]Column, len(d.cols))
	for i, col := range d.cols {
		sub := Column{Name: col.Name, Type: col.Type}
		switch col.Type {
		case Numeric:
			sub.Floats = make([]float64, len(rows))
			for j, r := range rows {
				sub.Floats[j] = col.Floats[r]
			}
		case Timestamp:
			sub.Times = make([]time.Time, len(rows))
			for j, r := range rows {
				sub.Times[j] = col.Times[r]
			}
		default:
			sub.Strs = make([]string, len(rows))
			for j, r := range rows {
				sub.Strs[j] = col.Strs[r]
			}
		}
		cols[i] = sub
	}

	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.target = d.target

	return out, nil
}
