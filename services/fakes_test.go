package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github/itish2003/pdfrag/models"
)

// fakeLLM answers rewrite and answer prompts with canned text and records them.
type fakeLLM struct {
	mu          sync.Mutex
	rewriteOut  string
	rewriteErr  error
	answerOut   string
	answerErr   error
	prompts     []string
	rewriteSeen []string
}

func (f *fakeLLM) GenerateText(_ context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if system == rewriteSystemPrompt {
		f.rewriteSeen = append(f.rewriteSeen, prompt)
		return f.rewriteOut, f.rewriteErr
	}
	return f.answerOut, f.answerErr
}

func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// fakeEmbedder maps text to a small letter-frequency vector, so identical
// texts get identical vectors and similar texts end up close.
type fakeEmbedder struct {
	err     error
	queries []string
	mu      sync.Mutex
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.queries = append(f.queries, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return letterVector(text), nil
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = letterVector(t)
	}
	return out, nil
}

func letterVector(text string) []float32 {
	v := make([]float32, 26)
	for i := range v {
		v[i] = 0.01
	}
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (f failingStore) Search(context.Context, []float32, int) ([]models.SearchMatch, error) {
	return nil, f.err
}

func (f failingStore) Upsert(context.Context, []models.DocumentChunk, [][]float32, int) error {
	return f.err
}

var errUpstream = errors.New("upstream unavailable")

func newTestMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore("test", "")
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	return s
}
