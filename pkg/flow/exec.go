package flow

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-flowfit/pkg/dataset"
)

type phase uint8

const (
	phaseFit phase = iota + 1
	phaseApply
)

// Fit runs every node's fit phase exactly once in a topological order
// and returns the sink's output. On any failure the flow is left
// untrained.
func (f *Flow) Fit(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}

	f.trained = false
	out, err := f.run(ctx, ds, phaseFit)
	if err != nil {
		return nil, err
	}
	f.trained = true

	return out, nil
}

// Apply replays the flow on new data using the state captured during the
// last Fit.
func (f *Flow) Apply(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, dataset.ErrNilDataset
	}
	if !f.trained {
		return nil, ErrNotFitted
	}

	return f.run(ctx, ds, phaseApply)
}

// run executes the nodes wave by wave: every node whose parents are all
// done is ready, and ready nodes of one wave run concurrently bounded by
// the flow's limit.
func (f *Flow) run(ctx context.Context, ds *dataset.Dataset, ph phase) (*dataset.Dataset, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	outputs := make(map[string]*dataset.Dataset, len(f.order))
	pending := make(map[string]struct{}, len(f.order))
	for _, name := range f.order {
		pending[name] = struct{}{}
	}

	for len(pending) > 0 {
		ready := f.readyNodes(pending, outputs)

		// All inputs of the wave are resolved before the first goroutine
		// launches, so nothing reads the outputs map while a sibling
		// writes to it.
		wave := make([]waveNode, len(ready))
		for i, name := range ready {
			node := f.nodes[name]
			wave[i] = waveNode{node: node, inputs: f.nodeInputs(node, ds, outputs)}
			if node.union {
				wave[i].upstream = f.unionUpstream(node, ds, outputs)
			}
		}

		grp, gCtx := errgroup.WithContext(ctx)
		grp.SetLimit(f.limit)
		for _, w := range wave {
			grp.Go(func() error {
				out, err := f.runNode(gCtx, w.node, w.inputs, w.upstream, ph)
				if err != nil {
					return err
				}

				mu.Lock()
				outputs[w.node.name] = out
				mu.Unlock()

				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return nil, err
		}

		for _, name := range ready {
			delete(pending, name)
		}
	}

	sink, err := f.sink()
	if err != nil {
		return nil, err
	}

	return outputs[sink], nil
}

// readyNodes returns the pending nodes whose parents all have outputs.
// Scanning insertion order keeps waves deterministic.
func (f *Flow) readyNodes(pending map[string]struct{}, outputs map[string]*dataset.Dataset) []string {
	var ready []string
	for _, name := range f.order {
		if _, ok := pending[name]; !ok {
			continue
		}

		done := true
		for _, parent := range f.parents[name] {
			if _, ok := outputs[parent]; !ok {
				done = false

				break
			}
		}
		if done {
			ready = append(ready, name)
		}
	}

	return ready
}

// waveNode is one node of a wave with its inputs already resolved.
type waveNode struct {
	node     *Node
	inputs   []*dataset.Dataset
	upstream *dataset.Dataset
}

// nodeInputs gathers the parent outputs feeding a node, falling back to
// the flow input for root nodes.
func (f *Flow) nodeInputs(node *Node, input *dataset.Dataset, outputs map[string]*dataset.Dataset) []*dataset.Dataset {
	parents := f.parents[node.name]
	if len(parents) == 0 {
		return []*dataset.Dataset{input}
	}

	inputs := make([]*dataset.Dataset, len(parents))
	for i, parent := range parents {
		inputs[i] = outputs[parent]
	}

	return inputs
}

// unionUpstream returns the output of the closest ancestor shared by
// every parent of a union node, or the flow input when the branches fork
// directly from it. That dataset decides which duplicated columns are
// untouched pass-throughs.
func (f *Flow) unionUpstream(node *Node, input *dataset.Dataset, outputs map[string]*dataset.Dataset) *dataset.Dataset {
	parents := f.parents[node.name]

	common := f.ancestors(parents[0])
	for _, parent := range parents[1:] {
		anc := f.ancestors(parent)
		for name := range common {
			if _, ok := anc[name]; !ok {
				delete(common, name)
			}
		}
	}
	if len(common) == 0 {
		return input
	}

	fork, forkDepth := "", -1
	for name := range common {
		if d := f.depth(name); d > forkDepth {
			fork, forkDepth = name, d
		}
	}

	return outputs[fork]
}

// ancestors returns the node itself plus every node upstream of it, so a
// parent that directly feeds the union can be the fork point.
func (f *Flow) ancestors(name string) map[string]struct{} {
	out := map[string]struct{}{name: {}}

	var walk func(string)
	walk = func(n string) {
		for _, parent := range f.parents[n] {
			if _, ok := out[parent]; ok {
				continue
			}
			out[parent] = struct{}{}
			walk(parent)
		}
	}
	walk(name)

	return out
}

func (f *Flow) depth(name string) int {
	d := 0
	for _, parent := range f.parents[name] {
		if pd := f.depth(parent) + 1; pd > d {
			d = pd
		}
	}

	return d
}

func (f *Flow) runNode(ctx context.Context, node *Node, inputs []*dataset.Dataset, upstream *dataset.Dataset, ph phase) (*dataset.Dataset, error) {
	if node.union {
		out, err := unionMerge(inputs, upstream)

		return out, errors.Wrapf(err, "union %q", node.name)
	}

	in := inputs[0]

	start := time.Now()

	var (
		out *dataset.Dataset
		err error
	)
	if ph == phaseFit {
		out, err = node.op.Fit(ctx, in)
	} else {
		out, err = node.op.Apply(ctx, in)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "node %q", node.name)
	}

	if f.msr != nil {
		if ph == phaseFit {
			f.msr.Metric(node.name).AddFit(time.Since(start))
		} else {
			f.msr.Metric(node.name).AddApply(time.Since(start))
		}
	}

	return out, nil
}

// unionMerge binds the branch outputs column-wise. A column present in
// two branches collapses onto the first branch when it is the target or
// when both copies are untouched pass-throughs of the shared upstream
// dataset; a collision between newly derived columns is an error.
func unionMerge(parts []*dataset.Dataset, upstream *dataset.Dataset) (*dataset.Dataset, error) {
	out := parts[0]
	for _, part := range parts[1:] {
		drop, err := collapsedColumns(out, part, upstream)
		if err != nil {
			return nil, err
		}
		if len(drop) > 0 {
			part, err = part.WithoutColumns(drop...)
			if err != nil {
				return nil, err
			}
		}

		out, err = out.Bind(part)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func collapsedColumns(out, part, upstream *dataset.Dataset) ([]string, error) {
	var drop []string
	for _, col := range part.Columns() {
		if !out.Has(col.Name) {
			continue
		}
		if col.Name == part.Target() {
			drop = append(drop, col.Name)

			continue
		}
		if upstream == nil || !upstream.Has(col.Name) {
			continue
		}

		base, err := upstream.Column(col.Name)
		if err != nil {
			return nil, err
		}
		kept, err := out.Column(col.Name)
		if err != nil {
			return nil, err
		}
		if col.Equal(base) && kept.Equal(base) {
			drop = append(drop, col.Name)
		}
	}

	return drop, nil
}
