package services

import (
	"context"
	"encoding/json"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/rs/zerolog/log"

	"github/itish2003/pdfrag/config"
	"github/itish2003/pdfrag/models"
)

// ChromaStore is a VectorStore backed by a Chroma server collection.
type ChromaStore struct {
	client        chromago.Client
	collection    chromago.Collection
	retryAttempts int
}

func NewChromaStore(ctx context.Context, cfg *config.Config) (*ChromaStore, error) {
	var opts []chromago.ClientOption
	if cfg.ChromaURL != "" {
		opts = append(opts, chromago.WithBaseURL(cfg.ChromaURL))
	}
	client, err := chromago.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create chroma client: %w", err)
	}

	log.Info().Str("collection", cfg.ChromaCollection).Msg("Getting or creating Chroma collection")
	collection, err := client.GetOrCreateCollection(
		ctx,
		cfg.ChromaCollection,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "PDF question answering chunks"),
				chromago.NewStringAttribute("created_by", "pdfrag"),
			),
		),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("get or create chroma collection %s: %w", cfg.ChromaCollection, err)
	}

	return &ChromaStore{client: client, collection: collection, retryAttempts: cfg.RetryAttempts}, nil
}

func (s *ChromaStore) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchMatch, error) {
	var results chromago.QueryResult
	err := withRetry(ctx, s.retryAttempts, "chroma.query", func() error {
		var err error
		results, err = s.collection.Query(
			ctx,
			chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
			chromago.WithNResults(topK),
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query chroma: %w", err)
	}

	idGroups := results.GetIDGroups()
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}

	matches := make([]models.SearchMatch, 0, len(documentGroups[0]))
	for i, doc := range documentGroups[0] {
		chunk := models.DocumentChunk{Text: doc.ContentString()}
		if len(idGroups) > 0 && i < len(idGroups[0]) {
			chunk.ID = string(idGroups[0][i])
		}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			chunk.Metadata = metadataToMap(metadataGroups[0][i])
		}
		var score float32
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			score = 1 - float32(distanceGroups[0][i])
		}
		matches = append(matches, models.SearchMatch{Chunk: chunk, Score: score})
	}
	return matches, nil
}

func (s *ChromaStore) Upsert(ctx context.Context, chunks []models.DocumentChunk, vectors [][]float32, concurrency int) error {
	if err := checkUpsertArgs(chunks, vectors); err != nil {
		return err
	}

	return forEachBatch(ctx, len(chunks), upsertBatchSize, concurrency, func(ctx context.Context, lo, hi int) error {
		ids := make([]chromago.DocumentID, 0, hi-lo)
		texts := make([]string, 0, hi-lo)
		embs := make([]embeddings.Embedding, 0, hi-lo)
		metas := make([]chromago.DocumentMetadata, 0, hi-lo)
		for i := lo; i < hi; i++ {
			c := chunks[i]
			attrs := make([]*chromago.MetaAttribute, 0, len(c.Metadata))
			for k, v := range c.Metadata {
				attrs = append(attrs, chromago.NewStringAttribute(k, v))
			}
			ids = append(ids, chromago.DocumentID(c.ID))
			texts = append(texts, c.Text)
			embs = append(embs, embeddings.NewEmbeddingFromFloat32(vectors[i]))
			metas = append(metas, chromago.NewDocumentMetadata(attrs...))
		}

		return withRetry(ctx, s.retryAttempts, "chroma.upsert", func() error {
			err := s.collection.Upsert(ctx,
				chromago.WithIDs(ids...),
				chromago.WithTexts(texts...),
				chromago.WithEmbeddings(embs...),
				chromago.WithMetadatas(metas...),
			)
			if err != nil {
				return fmt.Errorf("upsert chunks %d-%d to chroma: %w", lo, hi, err)
			}
			return nil
		})
	})
}

// Close releases the client, including any local embedding function it loaded.
func (s *ChromaStore) Close() error {
	return s.client.Close()
}

// metadataToMap flattens Chroma document metadata into strings.
// DocumentMetadata exposes no accessor for all keys, so it goes through JSON.
func metadataToMap(metadata chromago.DocumentMetadata) map[string]string {
	if metadata == nil {
		return nil
	}
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		log.Warn().Err(err).Msg("could not marshal chroma metadata")
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		log.Warn().Err(err).Msg("could not unmarshal chroma metadata")
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	return out
}
