package services

import (
	"context"
	"strings"
)

// AnswerGenerator asks the model to answer a question from retrieved context.
// Grounding is left to the prompt; the reply is returned as is.
type AnswerGenerator struct {
	llm TextGenerator
}

func NewAnswerGenerator(llm TextGenerator) *AnswerGenerator {
	return &AnswerGenerator{llm: llm}
}

func (a *AnswerGenerator) Generate(ctx context.Context, question, docContext string) (string, error) {
	out, err := a.llm.GenerateText(ctx, answerSystemPrompt, buildAnswerPrompt(question, docContext))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
