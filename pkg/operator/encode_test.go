package operator

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

func catDataset(t *testing.T, values []string) *dataset.Dataset {
	t.Helper()

	ds, err := dataset.New(
		dataset.Cat("colour", values),
		dataset.Num("y", make([]float64, len(values))),
	)
	require.NoError(t, err)
	require.NoError(t, ds.SetTarget("y"))

	return ds
}

func TestEncoderTreatment(t *testing.T) {
	t.Parallel()

	enc := NewEncoder()
	ds := catDataset(t, []string{"b", "a", "c", "a"})

	out, err := enc.Fit(context.Background(), ds)
	require.NoError(t, err)
	assert.True(t, enc.Trained())

	// Baseline is the sorted-first level "a", so only b and c get
	// indicator columns.
	assert.False(t, out.Has("colour"))
	assert.False(t, out.Has("colour.a"))

	b, err := out.Numeric("colour.b")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 0}, b)

	c, err := out.Numeric("colour.c")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, 0}, c)
}

func TestEncoderOneHot(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(EncoderMethod(OneHot))
	ds := catDataset(t, []string{"b", "a"})

	out, err := enc.Fit(context.Background(), ds)
	require.NoError(t, err)

	a, err := out.Numeric("colour.a")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, a)

	b, err := out.Numeric("colour.b")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, b)
}

func TestEncoderFrequency(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(EncoderMethod(Frequency))
	ds := catDataset(t, []string{"a", "a", "b", "a"})

	out, err := enc.Fit(context.Background(), ds)
	require.NoError(t, err)

	freq, err := out.Numeric("colour.freq")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.75, 0.75, 0.25, 0.75}, freq)
}

func TestEncoderMissingValues(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(EncoderMethod(OneHot))
	ds := catDataset(t, []string{"a", "", "b"})

	out, err := enc.Fit(context.Background(), ds)
	require.NoError(t, err)

	a, err := out.Numeric("colour.a")
	require.NoError(t, err)
	assert.Equal(t, float64(1), a[0])
	assert.True(t, math.IsNaN(a[1]))
	assert.Equal(t, float64(0), a[2])
}

func TestEncoderUnseenLevel(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		policy  UnseenPolicy
		wantErr bool
	}{
		"fallback": {policy: UnseenFallback},
		"error":    {policy: UnseenError, wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			enc := NewEncoder(EncoderMethod(OneHot), EncoderUnseen(tc.policy))
			_, err := enc.Fit(context.Background(), catDataset(t, []string{"a", "b"}))
			require.NoError(t, err)

			out, err := enc.Apply(context.Background(), catDataset(t, []string{"a", "z"}))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnseenLevel)

				return
			}
			require.NoError(t, err)

			// Unseen levels encode as all zeros.
			a, err := out.Numeric("colour.a")
			require.NoError(t, err)
			b, err := out.Numeric("colour.b")
			require.NoError(t, err)
			assert.Equal(t, float64(0), a[1])
			assert.Equal(t, float64(0), b[1])
		})
	}
}

func TestEncoderApplyBeforeFit(t *testing.T) {
	t.Parallel()

	enc := NewEncoder()
	_, err := enc.Apply(context.Background(), catDataset(t, []string{"a"}))
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestEncoderRefitDiscardsState(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(EncoderMethod(OneHot))
	_, err := enc.Fit(context.Background(), catDataset(t, []string{"a", "b"}))
	require.NoError(t, err)

	// A second fit on different levels replaces the learned levels.
	_, err = enc.Fit(context.Background(), catDataset(t, []string{"x", "y"}))
	require.NoError(t, err)

	out, err := enc.Apply(context.Background(), catDataset(t, []string{"x"}))
	require.NoError(t, err)
	assert.True(t, out.Has("colour.x"))
	assert.False(t, out.Has("colour.a"))
}

func TestEncoderNoObservedValues(t *testing.T) {
	t.Parallel()

	enc := NewEncoder()
	_, err := enc.Fit(context.Background(), catDataset(t, []string{"", ""}))
	assert.ErrorIs(t, err, ErrNoObservedValues)
}

func TestEncoderExplicitMissingColumn(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(EncoderColumns("nope"))
	_, err := enc.Fit(context.Background(), catDataset(t, []string{"a"}))
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)
}

func TestEncoderStateRoundTrip(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(EncoderName("enc"), EncoderMethod(Frequency))
	_, err := enc.Fit(context.Background(), catDataset(t, []string{"a", "b", "a"}))
	require.NoError(t, err)

	st, err := enc.State()
	require.NoError(t, err)

	restored := EncoderFromState(st)
	assert.True(t, restored.Trained())
	assert.Equal(t, "enc", restored.Name())

	want, err := enc.Apply(context.Background(), catDataset(t, []string{"b"}))
	require.NoError(t, err)
	got, err := restored.Apply(context.Background(), catDataset(t, []string{"b"}))
	require.NoError(t, err)
	assert.Equal(t, want.Names(), got.Names())
}
