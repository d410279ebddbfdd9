package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// DefaultEmbedBatchSize bounds texts per embedding request.
const DefaultEmbedBatchSize = 256

// Ensure BatchEmbedder implements the interface.
var _ driven.EmbeddingService = (*BatchEmbedder)(nil)

// BatchEmbedder splits large inputs into provider-sized requests.
// Batching is transparent: output order always matches input order.
type BatchEmbedder struct {
	driven.EmbeddingService
	batchSize int
}

// NewBatchEmbedder wraps svc. A batchSize <= 0 uses DefaultEmbedBatchSize.
func NewBatchEmbedder(svc driven.EmbeddingService, batchSize int) *BatchEmbedder {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	return &BatchEmbedder{EmbeddingService: svc, batchSize: batchSize}
}

// EmbedBatch embeds texts in sequential batches.
func (b *BatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		logger.Debug("Embedding batch %d-%d of %d", start, end, len(texts))

		batch, err := b.EmbeddingService.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: expected %d vectors, got %d",
				domain.ErrEmbeddingService, end-start, len(batch))
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}
