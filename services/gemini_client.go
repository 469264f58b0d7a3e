package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github/itish2003/pdfrag/config"
)

// embedBatchSize is the largest number of texts Gemini accepts in one embedding call.
const embedBatchSize = 100

// TextGenerator produces text from a system instruction and a user prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

// Embedder turns text into vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// GeminiClient talks to the Gemini API for both generation and embeddings.
// It is safe for concurrent use.
type GeminiClient struct {
	client         *genai.Client
	initErr        error
	chatModel      string
	embeddingModel string
	concurrency    int
	retryAttempts  int
}

// NewGeminiClient never fails on a missing key: the error is reported on the
// first call instead, so the server can still start and serve static files.
func NewGeminiClient(ctx context.Context, cfg *config.Config) *GeminiClient {
	g := &GeminiClient{
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		concurrency:    cfg.UpsertConcurrency,
		retryAttempts:  cfg.RetryAttempts,
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Gemini client unavailable, requests will fail until GEMINI_API_KEY is set")
		g.initErr = err
		return g
	}
	g.client = client
	log.Info().Str("chat_model", g.chatModel).Str("embedding_model", g.embeddingModel).Msg("Gemini client ready")
	return g
}

func (g *GeminiClient) ready() error {
	if g.client == nil {
		return fmt.Errorf("gemini client not initialised: %w", g.initErr)
	}
	return nil
}

// GenerateText implements TextGenerator.
func (g *GeminiClient) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	if err := g.ready(); err != nil {
		return "", err
	}

	var genConfig *genai.GenerateContentConfig
	if system != "" {
		genConfig = &genai.GenerateContentConfig{SystemInstruction: genai.Text(system)[0]}
	}

	var result *genai.GenerateContentResponse
	err := withRetry(ctx, g.retryAttempts, "gemini.generate", func() error {
		var err error
		result, err = g.client.Models.GenerateContent(ctx, g.chatModel, genai.Text(prompt), genConfig)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}
	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			text.WriteString(p.Text)
		}
	}
	return text.String(), nil
}

// EmbedQuery implements Embedder.
func (g *GeminiClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.embed(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments implements Embedder. Texts are sent in batches with at most
// g.concurrency batches in flight; the result is in input order.
func (g *GeminiClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	err := forEachBatch(ctx, len(texts), embedBatchSize, g.concurrency, func(ctx context.Context, lo, hi int) error {
		vectors, err := g.embed(ctx, texts[lo:hi], "RETRIEVAL_DOCUMENT")
		if err != nil {
			return fmt.Errorf("batch %d-%d: %w", lo, hi, err)
		}
		copy(out[lo:hi], vectors)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GeminiClient) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.Text(t)...)
	}

	var resp *genai.EmbedContentResponse
	err := withRetry(ctx, g.retryAttempts, "gemini.embed", func() error {
		var err error
		resp, err = g.client.Models.EmbedContent(ctx, g.embeddingModel, contents, &genai.EmbedContentConfig{TaskType: taskType})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embedding call failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

// forEachBatch calls fn for consecutive [lo, hi) windows of size batchSize
// over n items, running at most limit calls at once. The first error cancels
// the rest.
func forEachBatch(ctx context.Context, n, batchSize, limit int, fn func(ctx context.Context, lo, hi int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for lo := 0; lo < n; lo += batchSize {
		hi := min(lo+batchSize, n)
		g.Go(func() error {
			return fn(ctx, lo, hi)
		})
	}
	return g.Wait()
}
