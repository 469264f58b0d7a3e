package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// QueryRewriter turns a question plus optional history into a standalone question.
type QueryRewriter struct {
	llm TextGenerator
}

func NewQueryRewriter(llm TextGenerator) *QueryRewriter {
	return &QueryRewriter{llm: llm}
}

// Rewrite expects a non-blank question; callers validate before calling.
// The model output is only trimmed, never checked.
func (q *QueryRewriter) Rewrite(ctx context.Context, question string, history []string) (string, error) {
	out, err := q.llm.GenerateText(ctx, rewriteSystemPrompt, buildRewritePrompt(question, history))
	if err != nil {
		return "", err
	}
	rewritten := strings.TrimSpace(out)
	log.Debug().Str("question", question).Str("rewritten", rewritten).Msg("question rewritten")
	return rewritten, nil
}
