package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github/itish2003/docsearch/logger"
	"github/itish2003/docsearch/models"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"
)

const chromaCollectionPrefix = "docsearch-"

// ChromaIndex keeps one Chroma collection per session. Chunks carry their
// document ID so a replaced document can be deleted with a where filter.
type ChromaIndex struct {
	client      chromago.Client
	logger      logger.ILogger
	mu          sync.Mutex
	collections map[string]chromago.Collection
}

func NewChromaIndex(client chromago.Client, log logger.ILogger) *ChromaIndex {
	return &ChromaIndex{
		client:      client,
		logger:      log,
		collections: make(map[string]chromago.Collection),
	}
}

func collectionName(sessionID string) string {
	return chromaCollectionPrefix + sessionID
}

func (c *ChromaIndex) collection(ctx context.Context, sessionID string) (chromago.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.collections[sessionID]; ok {
		return col, nil
	}

	name := collectionName(sessionID)
	col, err := c.client.GetOrCreateCollection(
		ctx,
		name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "uploaded document chunks"),
				chromago.NewStringAttribute("session_id", sessionID),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection %s: %w", name, err)
	}
	c.logger.Debug("INDEXER", "Collection ready", map[string]interface{}{"collection": name})
	c.collections[sessionID] = col
	return col, nil
}

func (c *ChromaIndex) Add(ctx context.Context, sessionID, documentID string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}
	col, err := c.collection(ctx, sessionID)
	if err != nil {
		return err
	}

	for i, chunk := range chunks {
		metadata := chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("document_id", documentID),
			chromago.NewIntAttribute("chunk_num", int64(i)),
		)
		docID := chromago.DocumentID(fmt.Sprintf("%s-chunk%d", uuid.New().String(), i))
		err = col.Add(ctx,
			chromago.WithIDs(docID),
			chromago.WithTexts(chunk),
			chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(vectors[i])),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return fmt.Errorf("failed to add chunk %d to chromadb: %w", i, err)
		}
	}
	return nil
}

func (c *ChromaIndex) Query(ctx context.Context, sessionID, documentID string, vector []float32, k int) ([]models.SourceDocument, error) {
	col, err := c.collection(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	results, err := col.Query(
		ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
		chromago.WithWhereQuery(chromago.EqString("document_id", documentID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	var documents []models.SourceDocument
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	if len(documentGroups) == 0 {
		return documents, nil
	}
	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		var metadataMap map[string]interface{}
		if len(metadataGroups) > 0 && len(metadataGroups[0]) > i && metadataGroups[0][i] != nil {
			// DocumentMetadata has no exported accessor for the whole map; round-trip through JSON.
			if raw, err := json.Marshal(metadataGroups[0][i]); err == nil {
				_ = json.Unmarshal(raw, &metadataMap)
			}
		}
		documents = append(documents, models.SourceDocument{Text: doc.ContentString(), Metadata: metadataMap})
	}
	return documents, nil
}

func (c *ChromaIndex) DeleteDocument(ctx context.Context, sessionID, documentID string) error {
	col, err := c.collection(ctx, sessionID)
	if err != nil {
		return err
	}
	where := chromago.EqString("document_id", documentID)
	if err := col.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return fmt.Errorf("failed to delete chunks of document %s: %w", documentID, err)
	}
	return nil
}

// Drop deletes the session's collection by name, whether or not this process
// created it.
func (c *ChromaIndex) Drop(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	delete(c.collections, sessionID)
	c.mu.Unlock()
	if err := c.client.DeleteCollection(ctx, collectionName(sessionID)); err != nil {
		return fmt.Errorf("failed to delete collection for session %s: %w", sessionID, err)
	}
	return nil
}
