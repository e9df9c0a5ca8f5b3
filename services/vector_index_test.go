package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndex_QueryRanksByCosine(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Add(ctx, "s1", "doc1",
		[]string{"north", "east", "north-east"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
	))

	docs, err := idx.Query(ctx, "s1", "doc1", []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "north", docs[0].Text)
	assert.Equal(t, "north-east", docs[1].Text)
	assert.Equal(t, "doc1", docs[0].Metadata["document_id"])
}

func TestMemoryIndex_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Add(ctx, "s1", "doc1", []string{"a"}, [][]float32{{1}}))

	docs, err := idx.Query(ctx, "s2", "doc1", []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryIndex_DeleteDocumentAndDrop(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Add(ctx, "s1", "old", []string{"a", "b"}, [][]float32{{1}, {1}}))
	require.NoError(t, idx.Add(ctx, "s1", "new", []string{"c"}, [][]float32{{1}}))

	require.NoError(t, idx.DeleteDocument(ctx, "s1", "old"))
	assert.Equal(t, 1, idx.Len("s1"))
	docs, _ := idx.Query(ctx, "s1", "new", []float32{1}, 5)
	require.Len(t, docs, 1)
	assert.Equal(t, "c", docs[0].Text)

	require.NoError(t, idx.Drop(ctx, "s1"))
	assert.Equal(t, 0, idx.Len("s1"))
}

func TestMemoryIndex_QueryOnlyReturnsRequestedDocument(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Add(ctx, "s1", "stale", []string{"old chunk"}, [][]float32{{1, 0}}))
	require.NoError(t, idx.Add(ctx, "s1", "current", []string{"new chunk"}, [][]float32{{0, 1}}))

	docs, err := idx.Query(ctx, "s1", "current", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "new chunk", docs[0].Text)
	assert.Equal(t, "current", docs[0].Metadata["document_id"])
}

func TestMemoryIndex_AddRejectsMismatch(t *testing.T) {
	err := NewMemoryIndex().Add(context.Background(), "s1", "doc", []string{"a", "b"}, [][]float32{{1}})
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 2}, b: []float32{1, 2}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 2}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}
