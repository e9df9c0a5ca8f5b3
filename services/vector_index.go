package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github/itish2003/docsearch/models"
)

// VectorIndex stores chunk embeddings per session. Query only returns chunks of
// the given document, so leftovers of a replaced document are never retrieved.
type VectorIndex interface {
	Add(ctx context.Context, sessionID, documentID string, chunks []string, vectors [][]float32) error
	Query(ctx context.Context, sessionID, documentID string, vector []float32, k int) ([]models.SourceDocument, error)
	DeleteDocument(ctx context.Context, sessionID, documentID string) error
	Drop(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	documentID string
	chunkNum   int
	text       string
	vector     []float32
}

// MemoryIndex is a brute-force cosine index used when no Chroma server is configured.
type MemoryIndex struct {
	mu       sync.RWMutex
	sessions map[string][]memoryEntry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{sessions: make(map[string][]memoryEntry)}
}

func (m *MemoryIndex) Add(_ context.Context, sessionID, documentID string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range chunks {
		m.sessions[sessionID] = append(m.sessions[sessionID], memoryEntry{
			documentID: documentID,
			chunkNum:   i,
			text:       chunks[i],
			vector:     vectors[i],
		})
	}
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, sessionID, documentID string, vector []float32, k int) ([]models.SourceDocument, error) {
	m.mu.RLock()
	entries := m.sessions[sessionID]
	scored := make([]models.SourceDocument, 0, len(entries))
	for _, e := range entries {
		if e.documentID != documentID {
			continue
		}
		scored = append(scored, models.SourceDocument{
			Text:  e.text,
			Score: cosineSimilarity(vector, e.vector),
			Metadata: map[string]interface{}{
				"document_id": e.documentID,
				"chunk_num":   e.chunkNum,
			},
		})
	}
	m.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (m *MemoryIndex) DeleteDocument(_ context.Context, sessionID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.sessions[sessionID][:0]
	for _, e := range m.sessions[sessionID] {
		if e.documentID != documentID {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(m.sessions, sessionID)
		return nil
	}
	m.sessions[sessionID] = kept
	return nil
}

func (m *MemoryIndex) Drop(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// Len reports how many chunks a session holds.
func (m *MemoryIndex) Len(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID])
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
