package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// SearchService provides semantic retrieval to external actors.
type SearchService interface {
	// Search returns up to topK chunks most similar to query.
	// A topK of zero uses the configured default.
	Search(ctx context.Context, query string, topK int) (domain.RetrievalResult, error)
}

// AnswerService answers a question grounded in retrieved context.
type AnswerService interface {
	// Answer returns the raw model output. It never fabricates an answer:
	// any retrieval or completion failure is returned as an error.
	Answer(ctx context.Context, req domain.AnswerRequest) (string, error)
}
