package services

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"github/itish2003/pdfrag/models"
)

// MemoryStore is an in-process VectorStore on chromem-go. With a path it
// persists to disk, otherwise it lives only as long as the process.
type MemoryStore struct {
	collection *chromem.Collection
}

func NewMemoryStore(collectionName, path string) (*MemoryStore, error) {
	db := chromem.NewDB()
	if path != "" {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem database at %s: %w", path, err)
		}
	}

	// Embeddings are always supplied, so the collection never needs its own embedding func.
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create chromem collection %s: %w", collectionName, err)
	}
	log.Info().Str("collection", collectionName).Str("path", path).Int("documents", collection.Count()).Msg("Using in-process vector store")
	return &MemoryStore{collection: collection}, nil
}

func (m *MemoryStore) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchMatch, error) {
	// chromem rejects nResults larger than the collection.
	n := min(topK, m.collection.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := m.collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query chromem: %w", err)
	}

	matches := make([]models.SearchMatch, 0, len(results))
	for _, r := range results {
		matches = append(matches, models.SearchMatch{
			Chunk: models.DocumentChunk{ID: r.ID, Text: r.Content, Metadata: r.Metadata},
			Score: r.Similarity,
		})
	}
	return matches, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, chunks []models.DocumentChunk, vectors [][]float32, concurrency int) error {
	if err := checkUpsertArgs(chunks, vectors); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        c.ID,
			Metadata:  c.Metadata,
			Embedding: vectors[i],
			Content:   c.Text,
		}
	}
	if err := m.collection.AddDocuments(ctx, docs, max(concurrency, 1)); err != nil {
		return fmt.Errorf("add documents to chromem: %w", err)
	}
	return nil
}

// Count reports how many chunks are stored.
func (m *MemoryStore) Count() int {
	return m.collection.Count()
}
