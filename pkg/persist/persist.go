// Package persist encodes a trained GraphLearner to a compact binary
// snapshot and decodes it back, MUS format throughout. Operator and
// learner configuration that is not learned state, such as a text
// embedder client, is reattached at decode time through options.
package persist

import (
	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/askiada/go-flowfit/pkg/flow"
	"github.com/askiada/go-flowfit/pkg/learner"
	"github.com/askiada/go-flowfit/pkg/operator"
)

// formatVersion guards the snapshot layout. Bump it on any layout
// change so stale snapshots fail loudly instead of misdecoding.
const formatVersion = 1

var (
	ErrUnknownOperator = errors.New("unknown operator kind")
	ErrUnknownLearner  = errors.New("unknown learner kind")
	ErrCorrupt         = errors.New("snapshot is corrupt")
	ErrVersion         = errors.New("unsupported snapshot version")
	ErrNotTrained      = errors.New("only a trained graph learner can be encoded")
)

type config struct {
	embedder embeddings.Embedder
}

// Option configures decoding.
type Option func(*config)

// WithEmbedder reattaches an embedding client to restored TextEmbed
// operators. Snapshots never carry the client itself.
func WithEmbedder(e embeddings.Embedder) Option {
	return func(c *config) { c.embedder = e }
}

// Encode snapshots a trained GraphLearner.
func Encode(gl *learner.GraphLearner) ([]byte, error) {
	if gl == nil {
		return nil, learner.ErrLearnerMustBeSet
	}
	if !gl.Trained() {
		return nil, ErrNotTrained
	}

	w := &writer{}
	w.Int(formatVersion)

	nodes := gl.Flow().Nodes()
	w.Int(len(nodes))
	for _, node := range nodes {
		w.String(node.Name())
		w.Bool(node.Union())
		if node.Union() {
			continue
		}

		op := node.Operator()
		w.String(string(op.Kind()))
		state, err := marshalOperator(op)
		if err != nil {
			return nil, errors.Wrapf(err, "node %q", node.Name())
		}
		w.Bytes(state)
	}

	edges := gl.Flow().Edges()
	w.Int(len(edges))
	for _, edge := range edges {
		w.String(edge[0])
		w.String(edge[1])
	}

	base := gl.Base()
	w.String(string(base.Kind()))
	state, err := marshalLearner(base)
	if err != nil {
		return nil, errors.Wrapf(err, "learner %q", base.Name())
	}
	w.Bytes(state)

	return w.buf, nil
}

// Decode rebuilds a trained GraphLearner from a snapshot.
func Decode(data []byte, opts ...Option) (*learner.GraphLearner, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &reader{bs: data}

	if version := r.Int(); r.err == nil && version != formatVersion {
		return nil, errors.Wrapf(ErrVersion, "version %d", version)
	}

	f := flow.New()

	nNodes := r.Int()
	for i := 0; i < nNodes && r.err == nil; i++ {
		name := r.String()
		union := r.Bool()
		if union {
			if err := f.AddUnion(name); err != nil {
				return nil, errors.Wrapf(err, "node %q", name)
			}

			continue
		}

		kind := operator.Kind(r.String())
		state := r.Bytes()
		if r.err != nil {
			break
		}
		op, err := unmarshalOperator(kind, state, cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "node %q", name)
		}
		if op.Name() != name {
			return nil, errors.Wrapf(ErrCorrupt, "node %q decoded as %q", name, op.Name())
		}
		if err := f.AddOperator(op); err != nil {
			return nil, errors.Wrapf(err, "node %q", name)
		}
	}

	nEdges := r.Int()
	for i := 0; i < nEdges && r.err == nil; i++ {
		parent, child := r.String(), r.String()
		if r.err != nil {
			break
		}
		if err := f.Connect(parent, child); err != nil {
			return nil, errors.Wrapf(err, "edge %q -> %q", parent, child)
		}
	}

	learnerKind := learner.Kind(r.String())
	learnerState := r.Bytes()
	if r.err != nil {
		return nil, errors.Wrap(r.err, "decode snapshot")
	}

	base, err := unmarshalLearner(learnerKind, learnerState)
	if err != nil {
		return nil, err
	}

	return learner.Resume(f, base)
}
