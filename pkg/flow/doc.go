// Package flow composes operators into a directed acyclic graph that can
// be fit once and applied many times as a single unit.
//
// A flow is built from named nodes: operator nodes transform the dataset
// flowing through them, union nodes merge the outputs of parallel
// branches column-wise. Edges declare which upstream node feeds which
// downstream node; the graph rejects cycles at construction time. Nodes
// without a parent read the input dataset, and the flow must converge on
// exactly one sink whose output is the flow's result.
//
// Fit runs every operator's fit phase exactly once in a topological
// order; Apply replays the same traversal using the state each operator
// captured during fit. A failure anywhere leaves the whole flow
// untrained: there is no partially fit state to observe. Independent
// branches may run concurrently (see WithMaxConcurrency) since they only
// read the shared upstream output.
package flow
