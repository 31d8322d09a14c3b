package operator

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

// TextEmbed turns a text column into a fixed number of numeric embedding
// columns using an injected embedder (any langchaingo
// embeddings.Embedder, typically an OpenAI-compatible endpoint). The
// embedding width is learned at fit time and enforced on every apply.
//
// The embedder itself is configuration, not learned state: a restored
// operator needs the embedder injected again before it can apply.
type TextEmbed struct {
	name       string
	column     string
	embedder   embeddings.Embedder
	keepSource bool
	state      *embedState
}

type embedState struct {
	column string
	width  int
}

// TextEmbedOption configures a TextEmbed operator.
type TextEmbedOption func(*TextEmbed)

// TextEmbedName overrides the operator name.
func TextEmbedName(name string) TextEmbedOption {
	return func(t *TextEmbed) { t.name = name }
}

// TextEmbedKeepSource keeps the source text column in the output.
func TextEmbedKeepSource() TextEmbedOption {
	return func(t *TextEmbed) { t.keepSource = true }
}

// NewTextEmbed creates a text embedding operator for one text column.
func NewTextEmbed(column string, embedder embeddings.Embedder, opts ...TextEmbedOption) *TextEmbed {
	t := &TextEmbed{
		name:     "textembed",
		column:   column,
		embedder: embedder,
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

func (t *TextEmbed) Name() string  { return t.name }
func (t *TextEmbed) Kind() Kind    { return KindTextEmbed }
func (t *TextEmbed) Trained() bool { return t.state != nil }

// SetEmbedder injects the embedder, typically after restoring a
// persisted operator.
func (t *TextEmbed) SetEmbedder(embedder embeddings.Embedder) {
	t.embedder = embedder
}

// Fit embeds the training column, records the embedding width and
// returns the transformed dataset.
func (t *TextEmbed) Fit(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if t.embedder == nil {
		return nil, errors.Wrap(ErrNoEmbedder, t.name)
	}

	col, err := ds.Column(t.column)
	if err != nil {
		return nil, errors.Wrap(err, t.name)
	}
	if col.Type != dataset.Text {
		return nil, errors.Wrapf(dataset.ErrTypeMismatch, "%s: column %q is %s, want text", t.name, t.column, col.Type)
	}

	vectors, err := t.embed(ctx, col.Strs)
	if err != nil {
		return nil, err
	}

	width := 0
	for _, vec := range vectors {
		if vec != nil {
			width = len(vec)

			break
		}
	}
	if width == 0 {
		return nil, errors.Wrapf(ErrNoObservedValues, "%s: column %q", t.name, t.column)
	}

	state := &embedState{column: t.column, width: width}
	out, err := t.expand(ds, vectors, state)
	if err != nil {
		return nil, err
	}
	t.state = state

	return out, nil
}

// Apply embeds new data, enforcing the width captured at fit time.
func (t *TextEmbed) Apply(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if t.state == nil {
		return nil, errors.Wrap(ErrNotFitted, t.name)
	}
	if t.embedder == nil {
		return nil, errors.Wrap(ErrNoEmbedder, t.name)
	}

	col, err := ds.Column(t.state.column)
	if err != nil {
		return nil, errors.Wrap(err, t.name)
	}
	if col.Type != dataset.Text {
		return nil, errors.Wrapf(dataset.ErrTypeMismatch, "%s: column %q is %s, want text", t.name, t.state.column, col.Type)
	}

	vectors, err := t.embed(ctx, col.Strs)
	if err != nil {
		return nil, err
	}

	return t.expand(ds, vectors, t.state)
}

// embed returns one vector per row, nil for missing values.
func (t *TextEmbed) embed(ctx context.Context, values []string) ([][]float32, error) {
	present := make([]string, 0, len(values))
	rows := make([]int, 0, len(values))
	for i, v := range values {
		if v == "" {
			continue
		}
		present = append(present, v)
		rows = append(rows, i)
	}

	vectors := make([][]float32, len(values))
	if len(present) == 0 {
		return vectors, nil
	}

	embedded, err := t.embedder.EmbedDocuments(ctx, present)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: unable to embed column %q", t.name, t.column)
	}
	if len(embedded) != len(present) {
		return nil, errors.Errorf("%s: embedder returned %d vectors for %d texts", t.name, len(embedded), len(present))
	}

	for i, row := range rows {
		vectors[row] = embedded[i]
	}

	return vectors, nil
}

// expand lays the vectors out as numeric columns named
// <column>.emb0..<column>.embN. Missing rows become zero vectors.
func (t *TextEmbed) expand(ds *dataset.Dataset, vectors [][]float32, state *embedState) (*dataset.Dataset, error) {
	cols := make([]dataset.Column, state.width)
	for j := range cols {
		cols[j] = dataset.Num(state.column+".emb"+strconv.Itoa(j), make([]float64, len(vectors)))
	}

	for row, vec := range vectors {
		if vec == nil {
			continue
		}
		if len(vec) != state.width {
			return nil, errors.Wrapf(ErrEmbeddingWidth, "%s: got %d, want %d", t.name, len(vec), state.width)
		}
		for j, v := range vec {
			cols[j].Floats[row] = float64(v)
		}
	}

	out, err := ds.WithColumns(cols...)
	if err != nil {
		return nil, errors.Wrap(err, t.name)
	}
	if !t.keepSource {
		out, err = out.WithoutColumns(state.column)
		if err != nil {
			return nil, errors.Wrap(err, t.name)
		}
	}

	return out, nil
}

// TextEmbedState is the serializable learned state of a TextEmbed
// operator. The embedder is not part of it.
type TextEmbedState struct {
	Name       string
	Column     string
	Width      int
	KeepSource bool
}

// State exports the learned state of a fitted text embedder.
func (t *TextEmbed) State() (TextEmbedState, error) {
	if t.state == nil {
		return TextEmbedState{}, errors.Wrap(ErrNotFitted, t.name)
	}

	return TextEmbedState{
		Name:       t.name,
		Column:     t.state.column,
		Width:      t.state.width,
		KeepSource: t.keepSource,
	}, nil
}

// TextEmbedFromState rebuilds a fitted text embedder. The embedder must
// be injected with SetEmbedder before Apply.
func TextEmbedFromState(st TextEmbedState) *TextEmbed {
	return &TextEmbed{
		name:       st.Name,
		column:     st.Column,
		keepSource: st.KeepSource,
		state:      &embedState{column: st.Column, width: st.Width},
	}
}
