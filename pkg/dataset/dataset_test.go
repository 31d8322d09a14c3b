package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		cols    []Column
		wantErr error
	}{
		"valid":          {cols: []Column{Num("x", []float64{1, 2}), Cat("c", []string{"a", "b"})}},
		"no columns":     {wantErr: ErrNoColumns},
		"empty name":     {cols: []Column{Num("", []float64{1})}, wantErr: ErrEmptyColumnName},
		"duplicate name": {cols: []Column{Num("x", []float64{1}), Cat("x", []string{"a"})}, wantErr: ErrDuplicateColumn},
		"row mismatch":   {cols: []Column{Num("x", []float64{1, 2}), Cat("c", []string{"a"})}, wantErr: ErrRowMismatch},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ds, err := New(tc.cols...)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, ds.NumRows())
			assert.Equal(t, []string{"x", "c"}, ds.Names())
		})
	}
}

func TestSetTarget(t *testing.T) {
	t.Parallel()

	ds, err := New(Num("x", []float64{1}), Num("y", []float64{2}))
	require.NoError(t, err)

	require.NoError(t, ds.SetTarget("y"))
	assert.Equal(t, "y", ds.Target())

	assert.ErrorIs(t, ds.SetTarget("missing"), ErrColumnNotFound)
}

func TestColumnAccess(t *testing.T) {
	t.Parallel()

	ds, err := New(
		Num("x", []float64{1, math.NaN()}),
		Cat("c", []string{"a", ""}),
		Stamp("ts", []time.Time{time.Unix(0, 0), {}}),
	)
	require.NoError(t, err)

	floats, err := ds.Numeric("x")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(floats[1]))

	strs, err := ds.Strings("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", ""}, strs)

	times, err := ds.Times("ts")
	require.NoError(t, err)
	assert.True(t, times[1].IsZero())

	_, err = ds.Numeric("c")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = ds.Strings("missing")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestIsMissing(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		col  Column
		want []bool
	}{
		"numeric":     {col: Num("x", []float64{1, math.NaN()}), want: []bool{false, true}},
		"categorical": {col: Cat("c", []string{"a", ""}), want: []bool{false, true}},
		"ordered":     {col: Ord("o", []string{"low", ""}), want: []bool{false, true}},
		"text":        {col: Txt("t", []string{"hi", ""}), want: []bool{false, true}},
		"timestamp":   {col: Stamp("ts", []time.Time{time.Unix(0, 0), {}}), want: []bool{false, true}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			for i, want := range tc.want {
				assert.Equal(t, want, tc.col.IsMissing(i))
			}
		})
	}
}

func TestWithoutColumnsClearsTarget(t *testing.T) {
	t.Parallel()

	ds, err := New(Num("x", []float64{1}), Num("y", []float64{2}))
	require.NoError(t, err)
	require.NoError(t, ds.SetTarget("y"))

	smaller, err := ds.WithoutColumns("y")
	require.NoError(t, err)
	assert.Empty(t, smaller.Target())
	assert.False(t, smaller.Has("y"))

	// The source dataset is untouched.
	assert.Equal(t, "y", ds.Target())
}

func TestKeepColumnsAlwaysKeepsTarget(t *testing.T) {
	t.Parallel()

	ds, err := New(Num("x", []float64{1}), Num("y", []float64{2}), Num("z", []float64{3}))
	require.NoError(t, err)
	require.NoError(t, ds.SetTarget("y"))

	kept, err := ds.KeepColumns("x")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, kept.Names())
	assert.Equal(t, "y", kept.Target())
}

func TestBind(t *testing.T) {
	t.Parallel()

	left, err := New(Num("x", []float64{1, 2}))
	require.NoError(t, err)
	right, err := New(Num("y", []float64{3, 4}))
	require.NoError(t, err)

	bound, err := left.Bind(right)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, bound.Names())
	assert.Equal(t, 2, bound.NumRows())

	dup, err := New(Num("x", []float64{5, 6}))
	require.NoError(t, err)
	_, err = left.Bind(dup)
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	short, err := New(Num("z", []float64{7}))
	require.NoError(t, err)
	_, err = left.Bind(short)
	assert.ErrorIs(t, err, ErrRowMismatch)
}

func TestSubset(t *testing.T) {
	t.Parallel()

	ds, err := New(Num("x", []float64{10, 20, 30}), Cat("c", []string{"a", "b", "c"}))
	require.NoError(t, err)
	require.NoError(t, ds.SetTarget("c"))

	sub, err := ds.Subset([]int{2, 0})
	require.NoError(t, err)

	floats, err := sub.Numeric("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 10}, floats)
	assert.Equal(t, "c", sub.Target())

	_, err = ds.Subset([]int{3})
	assert.ErrorIs(t, err, ErrRowOutOfRange)
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	ds, err := New(Num("x", []float64{1, 2}))
	require.NoError(t, err)

	clone := ds.Clone()
	col, err := clone.Column("x")
	require.NoError(t, err)
	col.Floats[0] = 99

	original, err := ds.Numeric("x")
	require.NoError(t, err)
	assert.Equal(t, float64(1), original[0])
}

func TestColumnEqual(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		a     Column
		b     Column
		equal bool
	}{
		"same values":     {a: Num("x", []float64{1, 2}), b: Num("x", []float64{1, 2}), equal: true},
		"nan matches nan": {a: Num("x", []float64{math.NaN()}), b: Num("x", []float64{math.NaN()}), equal: true},
		"other values":    {a: Num("x", []float64{1, 2}), b: Num("x", []float64{1, 3}), equal: false},
		"other name":      {a: Num("x", []float64{1}), b: Num("z", []float64{1}), equal: false},
		"other type":      {a: Cat("c", []string{"a"}), b: Txt("c", []string{"a"}), equal: false},
		"other length":    {a: Num("x", []float64{1}), b: Num("x", []float64{1, 1}), equal: false},
		"timestamps": {
			a:     Stamp("t", []time.Time{time.Unix(10, 0)}),
			b:     Stamp("t", []time.Time{time.Unix(10, 0).UTC()}),
			equal: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.equal, tc.a.Equal(tc.b))
		})
	}
}

func TestTypeFromString(t *testing.T) {
	t.Parallel()

	typ, err := TypeFromString("numeric")
	require.NoError(t, err)
	assert.Equal(t, Numeric, typ)

	_, err = TypeFromString("bogus")
	assert.True(t, errors.Is(err, ErrUnknownType))
}
