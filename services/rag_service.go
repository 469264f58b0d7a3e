package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github/itish2003/pdfrag/models"
)

// ErrEmptyQuestion is returned when the question is blank after trimming.
var ErrEmptyQuestion = errors.New("question is required")

// RAGService answers questions about the indexed document.
type RAGService interface {
	Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error)
}

// ragServiceImpl holds the dependencies it needs to do its job. None of
// them carry per-request state.
type ragServiceImpl struct {
	rewriter  *QueryRewriter
	embedder  Embedder
	store     VectorStore
	generator *AnswerGenerator
	topK      int
}

// NewRAGService creates a new RAG service instance
func NewRAGService(llm TextGenerator, embedder Embedder, store VectorStore, topK int) RAGService {
	return &ragServiceImpl{
		rewriter:  NewQueryRewriter(llm),
		embedder:  embedder,
		store:     store,
		generator: NewAnswerGenerator(llm),
		topK:      topK,
	}
}

// Ask runs rewrite, embed, search and generate in order. Nothing is retried
// here and the first failure is returned as is.
func (r *ragServiceImpl) Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	log.Debug().Str("question", question).Int("history", len(req.History)).Msg("SERVICE: answering question")

	standalone, err := r.rewriter.Rewrite(ctx, question, req.History)
	if err != nil {
		return nil, fmt.Errorf("rewrite question: %w", err)
	}
	if standalone == "" {
		standalone = question
	}

	vector, err := r.embedder.EmbedQuery(ctx, standalone)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := r.store.Search(ctx, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search vector store: %w", err)
	}
	log.Debug().Int("matches", len(matches)).Msg("SERVICE: retrieved chunks")

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		texts = append(texts, m.Chunk.Text)
	}
	docContext := joinContext(texts)

	answer, err := r.generator.Generate(ctx, standalone, docContext)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &models.AskResponse{Answer: answer, Context: docContext}, nil
}
