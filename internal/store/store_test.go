package store

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexLifecycle(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore[string, string]()

	require.NoError(t, s.AddVertex("a", "payload", graph.VertexProperties{}))
	assert.ErrorIs(t, s.AddVertex("a", "other", graph.VertexProperties{}), graph.ErrVertexAlreadyExists)

	v, _, err := s.Vertex("a")
	require.NoError(t, err)
	assert.Equal(t, "payload", v)

	_, _, err = s.Vertex("missing")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)

	count, err := s.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.RemoveVertex("a"))
	assert.ErrorIs(t, s.RemoveVertex("a"), graph.ErrVertexNotFound)
}

func TestRemoveVertexWithEdges(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore[string, string]()
	require.NoError(t, s.AddVertex("a", "a", graph.VertexProperties{}))
	require.NoError(t, s.AddVertex("b", "b", graph.VertexProperties{}))
	require.NoError(t, s.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))

	assert.ErrorIs(t, s.RemoveVertex("a"), graph.ErrVertexHasEdges)

	require.NoError(t, s.RemoveEdge("a", "b"))
	require.NoError(t, s.RemoveVertex("a"))
}

func TestEdges(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore[string, string]()
	require.NoError(t, s.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))

	edge, err := s.Edge("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", edge.Target)

	_, err = s.Edge("b", "a")
	assert.ErrorIs(t, err, graph.ErrEdgeNotFound)

	edges, err := s.ListEdges()
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}
