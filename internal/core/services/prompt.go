package services

import (
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// FallbackPhrase is what the model is told to answer when the context does
// not contain the answer.
const FallbackPhrase = "I don't know"

// ContextSeparator divides retrieved chunks in the prompt.
const ContextSeparator = "\n\n---\n\n"

const groundingInstruction = "Use ONLY the provided context. If the answer is not explicitly in the context,\n" +
	`reply with "` + FallbackPhrase + `".`

// PromptBuilder composes the grounded instruction sent to the model.
// Output depends only on its inputs.
type PromptBuilder struct{}

// Build returns the prompt with four sections in fixed order: grounding
// instruction, conversation history, retrieved context and the question.
// Empty chunks or history leave their section empty.
func (PromptBuilder) Build(query string, chunks []string, history []domain.Turn) string {
	var hist strings.Builder
	for _, turn := range history {
		hist.WriteString(strings.ToUpper(turn.Role.String()))
		hist.WriteString(": ")
		hist.WriteString(turn.Content)
		hist.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString(groundingInstruction)
	b.WriteString("\n\nConversation:\n")
	b.WriteString(hist.String())
	b.WriteString("\n\nContext:\n")
	b.WriteString(strings.Join(chunks, ContextSeparator))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)

	return strings.TrimSpace(b.String())
}
