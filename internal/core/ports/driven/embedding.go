package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations wrap provider failures in domain.ErrEmbeddingService and,
// where the provider reports it, domain.ErrRateLimited or domain.ErrAuth.
// They do not retry; retries are layered on by decorators.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Gemini (text-embedding-004)
type EmbeddingService interface {
	// EmbedBatch generates embeddings for multiple texts.
	// The result has the same length and order as texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
