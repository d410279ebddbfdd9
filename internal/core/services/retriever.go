package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// DefaultTopK is the number of chunks retrieved when none is requested.
const DefaultTopK = 5

// Ensure Retriever implements the interface.
var _ driving.SearchService = (*Retriever)(nil)

// Retriever performs semantic search over the configured collection.
// Queries are restricted to points embedded with the current model so
// vectors from different embedding spaces are never compared.
type Retriever struct {
	embedder    driven.EmbeddingService
	index       driven.VectorIndex
	collection  string
	defaultTopK int
}

// NewRetriever creates a retriever. A defaultTopK <= 0 uses DefaultTopK.
func NewRetriever(embedder driven.EmbeddingService, index driven.VectorIndex, collection string, defaultTopK int) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Retriever{
		embedder:    embedder,
		index:       index,
		collection:  collection,
		defaultTopK: defaultTopK,
	}
}

// Search embeds query and returns up to topK nearest chunks, best first.
// A topK of zero uses the default; a negative topK is invalid input.
func (r *Retriever) Search(ctx context.Context, query string, topK int) (domain.RetrievalResult, error) {
	logger.Section("Retrieval")

	if topK == 0 {
		topK = r.defaultTopK
	}
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be at least 1, got %d", domain.ErrInvalidInput, topK)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	vectors, err := r.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", domain.ErrEmbeddingService, len(vectors))
	}

	filter := domain.QueryFilter{EmbeddingModel: r.embedder.ModelName()}
	results, err := r.index.Query(ctx, r.collection, vectors[0], topK, filter)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.collection, err)
	}

	logger.Debug("Retrieved %d chunks (top_k=%d)", len(results), topK)
	for i, hit := range results {
		logger.Debug("  %d. %.4f %s#%d", i+1, hit.Score, hit.Chunk.Source, hit.Chunk.Index)
	}
	return results, nil
}
