package operator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// stubEmbedder assigns a fixed-width vector derived from the text length.
type stubEmbedder struct {
	width int
	calls int
}

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, s.width)
		for j := range vec {
			vec[j] = float32(len(text) + j)
		}
		out[i] = vec
	}

	return out, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vecs[0], nil
}

func txtDataset(t *testing.T, values []string) *dataset.Dataset {
	t.Helper()

	ds, err := dataset.New(dataset.Txt("bio", values))
	require.NoError(t, err)

	return ds
}

func TestTextEmbedFit(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{width: 3}
	op := NewTextEmbed("bio", emb)

	out, err := op.Fit(context.Background(), txtDataset(t, []string{"ab", ""}))
	require.NoError(t, err)
	assert.True(t, op.Trained())
	assert.False(t, out.Has("bio"))

	e0, err := out.Numeric("bio.emb0")
	require.NoError(t, err)
	e2, err := out.Numeric("bio.emb2")
	require.NoError(t, err)

	assert.Equal(t, float64(2), e0[0])
	assert.Equal(t, float64(4), e2[0])

	// Missing rows embed as zero vectors and are never sent to the
	// embedder.
	assert.Equal(t, float64(0), e0[1])
	assert.Equal(t, 1, emb.calls)
}

func TestTextEmbedNoEmbedder(t *testing.T) {
	t.Parallel()

	op := NewTextEmbed("bio", nil)
	_, err := op.Fit(context.Background(), txtDataset(t, []string{"ab"}))
	assert.ErrorIs(t, err, ErrNoEmbedder)
}

func TestTextEmbedWrongColumnType(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New(dataset.Cat("bio", []string{"a"}))
	require.NoError(t, err)

	op := NewTextEmbed("bio", &stubEmbedder{width: 2})
	_, err = op.Fit(context.Background(), ds)
	assert.ErrorIs(t, err, dataset.ErrTypeMismatch)
}

func TestTextEmbedAllMissing(t *testing.T) {
	t.Parallel()

	op := NewTextEmbed("bio", &stubEmbedder{width: 2})
	_, err := op.Fit(context.Background(), txtDataset(t, []string{"", ""}))
	assert.ErrorIs(t, err, ErrNoObservedValues)
}

func TestTextEmbedWidthMismatch(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{width: 3}
	op := NewTextEmbed("bio", emb)

	_, err := op.Fit(context.Background(), txtDataset(t, []string{"ab"}))
	require.NoError(t, err)

	// The embedding service changed width between fit and apply.
	emb.width = 5
	_, err = op.Apply(context.Background(), txtDataset(t, []string{"cd"}))
	assert.ErrorIs(t, err, ErrEmbeddingWidth)
}

func TestTextEmbedRestoreNeedsEmbedder(t *testing.T) {
	t.Parallel()

	op := NewTextEmbed("bio", &stubEmbedder{width: 2})
	_, err := op.Fit(context.Background(), txtDataset(t, []string{"ab"}))
	require.NoError(t, err)

	st, err := op.State()
	require.NoError(t, err)

	restored := TextEmbedFromState(st)
	require.True(t, restored.Trained())

	_, err = restored.Apply(context.Background(), txtDataset(t, []string{"cd"}))
	assert.ErrorIs(t, err, ErrNoEmbedder)

	restored.SetEmbedder(&stubEmbedder{width: 2})
	out, err := restored.Apply(context.Background(), txtDataset(t, []string{"cd"}))
	require.NoError(t, err)
	assert.True(t, out.Has("bio.emb1"))
}
