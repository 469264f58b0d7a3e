package services

import (
	"fmt"
	"strings"
)

const (
	// FallbackAnswer is what the model is told to say when the context does not hold the answer.
	FallbackAnswer = "I could not find the answer in the provided document."

	// NoContextPlaceholder replaces an empty context in the answer prompt.
	NoContextPlaceholder = "(No relevant context found in the database.)"

	// ContextSeparator joins retrieved chunk texts into the context string.
	ContextSeparator = "\n\n---\n\n"
)

const rewriteSystemPrompt = `You rewrite user questions for a document search engine.
Given an optional chat history and a follow-up question, rewrite the question so it can be
understood without the history. Keep the original language and meaning.
Output only the rewritten standalone question, with no explanation or quotes.`

const answerSystemPrompt = `You are a helpful assistant that answers questions about a single document.
Answer ONLY from the context supplied by the user message. Do not use outside knowledge.
If the context does not contain enough information to answer, reply exactly:
"` + FallbackAnswer + `"`

// buildRewritePrompt renders the history (oldest first) and the question.
func buildRewritePrompt(question string, history []string) string {
	var entries []string
	for _, h := range history {
		if h = strings.TrimSpace(h); h != "" {
			entries = append(entries, h)
		}
	}

	var sb strings.Builder
	if len(entries) > 0 {
		sb.WriteString("Chat history:\n")
		for _, h := range entries {
			sb.WriteString("- ")
			sb.WriteString(h)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Follow-up question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nStandalone question:")
	return sb.String()
}

func buildAnswerPrompt(question, docContext string) string {
	if strings.TrimSpace(docContext) == "" {
		docContext = NoContextPlaceholder
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", docContext, question)
}

// joinContext concatenates the non-empty match texts with ContextSeparator.
func joinContext(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ContextSeparator)
}
