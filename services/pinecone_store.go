package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"

	"github/itish2003/pdfrag/config"
	"github/itish2003/pdfrag/models"
)

// PineconeStore is a VectorStore backed by a hosted Pinecone index.
type PineconeStore struct {
	conn          *pinecone.IndexConnection
	retryAttempts int
}

func NewPineconeStore(ctx context.Context, cfg *config.Config) (*PineconeStore, error) {
	if cfg.PineconeAPIKey == "" {
		return nil, errors.New("PINECONE_API_KEY is not set")
	}
	if cfg.PineconeIndexName == "" {
		return nil, errors.New("PINECONE_INDEX_NAME is not set")
	}

	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.PineconeAPIKey})
	if err != nil {
		return nil, fmt.Errorf("create pinecone client: %w", err)
	}
	idx, err := pc.DescribeIndex(ctx, cfg.PineconeIndexName)
	if err != nil {
		return nil, fmt.Errorf("describe pinecone index %s: %w", cfg.PineconeIndexName, err)
	}
	conn, err := pc.Index(pinecone.NewIndexConnParams{Host: idx.Host, Namespace: cfg.PineconeNamespace})
	if err != nil {
		return nil, fmt.Errorf("connect to pinecone index %s: %w", cfg.PineconeIndexName, err)
	}

	log.Info().Str("index", cfg.PineconeIndexName).Str("host", idx.Host).Msg("Connected to Pinecone")
	return &PineconeStore{conn: conn, retryAttempts: cfg.RetryAttempts}, nil
}

func (p *PineconeStore) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchMatch, error) {
	var res *pinecone.QueryVectorsResponse
	err := withRetry(ctx, p.retryAttempts, "pinecone.query", func() error {
		var err error
		res, err = p.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
			Vector:          vector,
			TopK:            uint32(topK),
			IncludeMetadata: true,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query pinecone: %w", err)
	}

	matches := make([]models.SearchMatch, 0, len(res.Matches))
	for _, m := range res.Matches {
		if match, ok := fromScoredVector(m); ok {
			matches = append(matches, match)
		}
	}
	return matches, nil
}

func (p *PineconeStore) Upsert(ctx context.Context, chunks []models.DocumentChunk, vectors [][]float32, concurrency int) error {
	if err := checkUpsertArgs(chunks, vectors); err != nil {
		return err
	}

	records := make([]*pinecone.Vector, len(chunks))
	for i, c := range chunks {
		record, err := toPineconeVector(c, vectors[i])
		if err != nil {
			return err
		}
		records[i] = record
	}

	return forEachBatch(ctx, len(records), upsertBatchSize, concurrency, func(ctx context.Context, lo, hi int) error {
		return withRetry(ctx, p.retryAttempts, "pinecone.upsert", func() error {
			if _, err := p.conn.UpsertVectors(ctx, records[lo:hi]); err != nil {
				return fmt.Errorf("upsert vectors %d-%d: %w", lo, hi, err)
			}
			return nil
		})
	})
}

func (p *PineconeStore) Close() error {
	return p.conn.Close()
}

// toPineconeVector stores the chunk text under metaText next to its metadata.
func toPineconeVector(c models.DocumentChunk, vector []float32) (*pinecone.Vector, error) {
	fields := make(map[string]any, len(c.Metadata)+1)
	for k, v := range c.Metadata {
		fields[k] = v
	}
	fields[metaText] = c.Text
	metadata, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode metadata for chunk %s: %w", c.ID, err)
	}
	return &pinecone.Vector{Id: c.ID, Values: &vector, Metadata: metadata}, nil
}

func fromScoredVector(m *pinecone.ScoredVector) (models.SearchMatch, bool) {
	if m == nil || m.Vector == nil {
		return models.SearchMatch{}, false
	}
	chunk := models.DocumentChunk{ID: m.Vector.Id, Metadata: map[string]string{}}
	if m.Vector.Metadata != nil {
		for k, v := range m.Vector.Metadata.GetFields() {
			if k == metaText {
				chunk.Text = v.GetStringValue()
				continue
			}
			chunk.Metadata[k] = v.GetStringValue()
		}
	}
	return models.SearchMatch{Chunk: chunk, Score: m.Score}, true
}
