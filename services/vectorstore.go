package services

import (
	"context"
	"fmt"

	"github/itish2003/pdfrag/config"
	"github/itish2003/pdfrag/models"
)

// upsertBatchSize is the number of vectors written per store request.
const upsertBatchSize = 100

// metaText is the metadata key that carries a chunk's text in every backend.
const metaText = "text"

// VectorStore is a similarity index over document chunks.
type VectorStore interface {
	// Search returns at most topK matches, best first.
	Search(ctx context.Context, vector []float32, topK int) ([]models.SearchMatch, error)
	// Upsert writes chunks[i] with vectors[i], keyed by chunk ID, with at most
	// concurrency requests in flight.
	Upsert(ctx context.Context, chunks []models.DocumentChunk, vectors [][]float32, concurrency int) error
}

// NewVectorStore builds the backend selected by cfg.VectorStore. The returned
// close func releases its connections.
func NewVectorStore(ctx context.Context, cfg *config.Config) (VectorStore, func() error, error) {
	switch cfg.VectorStore {
	case config.VectorStorePinecone:
		s, err := NewPineconeStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.VectorStoreChroma:
		s, err := NewChromaStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.VectorStoreMemory:
		s, err := NewMemoryStore(cfg.ChromaCollection, cfg.MemoryStorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}
}

// UnavailableStore fails every call with the error that prevented the real
// store from being built.
type UnavailableStore struct {
	Err error
}

func (u UnavailableStore) Search(context.Context, []float32, int) ([]models.SearchMatch, error) {
	return nil, fmt.Errorf("vector store unavailable: %w", u.Err)
}

func (u UnavailableStore) Upsert(context.Context, []models.DocumentChunk, [][]float32, int) error {
	return fmt.Errorf("vector store unavailable: %w", u.Err)
}

func checkUpsertArgs(chunks []models.DocumentChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	return nil
}
