package flow

import (
	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-flowfit/internal/store"
	"github.com/askiada/go-flowfit/pkg/flow/measure"
	"github.com/askiada/go-flowfit/pkg/operator"
)

// Node is a single vertex of a flow: either an operator node or a union
// node merging its parents column-wise.
type Node struct {
	name  string
	op    operator.Operator
	union bool
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Union reports whether the node is a union merge node.
func (n *Node) Union() bool { return n.union }

// Operator returns the node's operator, nil for union nodes.
func (n *Node) Operator() operator.Operator { return n.op }

func nodeHash(n *Node) string { return n.name }

// Flow is a DAG of operators behaving like a single fit/apply transform.
type Flow struct {
	g        graph.Graph[string, *Node]
	nodes    map[string]*Node
	order    []string
	parents  map[string][]string
	children map[string]int
	edges    [][2]string
	trained  bool

	limit int
	msr   *measure.Measure
}

// Option configures a Flow.
type Option func(*Flow)

// WithMaxConcurrency bounds how many independent nodes may execute at
// once during fit and apply. Default is 1 (fully sequential).
func WithMaxConcurrency(n int) Option {
	return func(f *Flow) {
		if n > 0 {
			f.limit = n
		}
	}
}

// WithMeasure records per-node fit and apply durations into msr.
func WithMeasure(msr *measure.Measure) Option {
	return func(f *Flow) {
		f.msr = msr
	}
}

// New creates an empty flow.
func New(opts ...Option) *Flow {
	f := &Flow{
		g: graph.NewWithStore(nodeHash, store.NewMemoryStore[string, *Node](),
			graph.Directed(), graph.PreventCycles()),
		nodes:    make(map[string]*Node),
		parents:  make(map[string][]string),
		children: make(map[string]int),
		limit:    1,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// AddOperator adds an operator node named after the operator.
func (f *Flow) AddOperator(op operator.Operator) error {
	if op == nil {
		return ErrOperatorMustBeSet
	}

	return f.addNode(&Node{name: op.Name(), op: op})
}

// AddUnion adds a union merge node.
func (f *Flow) AddUnion(name string) error {
	return f.addNode(&Node{name: name, union: true})
}

func (f *Flow) addNode(node *Node) error {
	if err := f.g.AddVertex(node); err != nil {
		return errors.Wrapf(err, "unable to add node %q", node.name)
	}

	f.nodes[node.name] = node
	f.order = append(f.order, node.name)
	f.trained = false

	return nil
}

// Connect declares that the output of parent feeds child. The underlying
// graph rejects edges that would introduce a cycle. Operator nodes accept
// a single parent; union nodes accept any number.
func (f *Flow) Connect(parent, child string) error {
	node, ok := f.nodes[child]
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "%q", child)
	}
	if !node.union && len(f.parents[child]) >= 1 {
		return errors.Wrapf(ErrTooManyParents, "node %q", child)
	}

	if err := f.g.AddEdge(parent, child); err != nil {
		return errors.Wrapf(err, "unable to connect %q to %q", parent, child)
	}

	f.parents[child] = append(f.parents[child], parent)
	f.children[parent]++
	f.edges = append(f.edges, [2]string{parent, child})
	f.trained = false

	return nil
}

// Then appends an operator after the flow's current sink. On an empty
// flow it adds the first node.
func (f *Flow) Then(op operator.Operator) error {
	if op == nil {
		return ErrOperatorMustBeSet
	}

	sink := ""
	if len(f.order) > 0 {
		var err error
		sink, err = f.sink()
		if err != nil {
			return err
		}
	}

	if err := f.AddOperator(op); err != nil {
		return err
	}
	if sink == "" {
		return nil
	}

	return f.Connect(sink, op.Name())
}

// Chain builds a linear flow applying the operators in order.
func Chain(ops ...operator.Operator) (*Flow, error) {
	f := New()
	for _, op := range ops {
		if err := f.Then(op); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Union builds a flow with one parallel branch per operator slice, all
// reading the input dataset, merged column-wise by a union node with the
// given name.
func Union(name string, branches ...[]operator.Operator) (*Flow, error) {
	f := New()
	if err := f.AddUnion(name); err != nil {
		return nil, err
	}

	for i, branch := range branches {
		if len(branch) == 0 {
			return nil, errors.Wrapf(ErrEmptyBranch, "branch %d", i)
		}

		prev := ""
		for _, op := range branch {
			if err := f.AddOperator(op); err != nil {
				return nil, err
			}
			if prev != "" {
				if err := f.Connect(prev, op.Name()); err != nil {
					return nil, err
				}
			}
			prev = op.Name()
		}

		if err := f.Connect(prev, name); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Trained reports whether every node has been fit as part of the last
// successful Fit.
func (f *Flow) Trained() bool { return f.trained }

// Node returns the node with the given name.
func (f *Flow) Node(name string) (*Node, error) {
	node, ok := f.nodes[name]
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "%q", name)
	}

	return node, nil
}

// Nodes returns all nodes in insertion order.
func (f *Flow) Nodes() []*Node {
	out := make([]*Node, len(f.order))
	for i, name := range f.order {
		out[i] = f.nodes[name]
	}

	return out
}

// Edges returns all [parent, child] edges in declaration order. For
// union nodes the declaration order of incoming edges fixes the merge
// order of the parents.
func (f *Flow) Edges() [][2]string {
	return append([][2]string(nil), f.edges...)
}

// sink returns the unique node without children.
func (f *Flow) sink() (string, error) {
	if len(f.order) == 0 {
		return "", ErrEmptyFlow
	}

	sink := ""
	for _, name := range f.order {
		if f.children[name] > 0 {
			continue
		}
		if sink != "" {
			return "", errors.Wrapf(ErrMultipleSinks, "%q and %q", sink, name)
		}
		sink = name
	}
	if sink == "" {
		return "", ErrNoSink
	}

	return sink, nil
}

func (f *Flow) validate() error {
	if _, err := f.sink(); err != nil {
		return err
	}

	for _, name := range f.order {
		node := f.nodes[name]
		if node.union && len(f.parents[name]) < 2 {
			return errors.Wrapf(ErrUnionParents, "node %q has %d", name, len(f.parents[name]))
		}
	}

	return nil
}

// RestoreTrained marks a reconstructed flow as trained. Every operator
// node must already carry fitted state.
func (f *Flow) RestoreTrained() error {
	if err := f.validate(); err != nil {
		return err
	}

	for _, name := range f.order {
		node := f.nodes[name]
		if node.union {
			continue
		}
		if !node.op.Trained() {
			return errors.Wrapf(operator.ErrNotFitted, "node %q", name)
		}
	}
	f.trained = true

	return nil
}
