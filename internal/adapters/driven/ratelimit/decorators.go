package ratelimit

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure decorators implement the interfaces.
var (
	_ driven.EmbeddingService  = (*Embedder)(nil)
	_ driven.CompletionService = (*Completer)(nil)
)

// Embedder wraps an embedding service with pacing and rate limit retries.
type Embedder struct {
	driven.EmbeddingService
	r *retrier
}

// NewEmbedder wraps svc.
func NewEmbedder(svc driven.EmbeddingService, cfg Config) *Embedder {
	return &Embedder{EmbeddingService: svc, r: newRetrier(cfg)}
}

// EmbedBatch embeds texts, retrying while the provider is rate limiting.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.r.do(ctx, "embedding", func() error {
		var err error
		out, err = e.EmbeddingService.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// Completer wraps a completion service with pacing and rate limit retries.
type Completer struct {
	driven.CompletionService
	r *retrier
}

// NewCompleter wraps svc.
func NewCompleter(svc driven.CompletionService, cfg Config) *Completer {
	return &Completer{CompletionService: svc, r: newRetrier(cfg)}
}

// Complete generates an answer, retrying while the provider is rate limiting.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	var out string
	err := c.r.do(ctx, "completion", func() error {
		var err error
		out, err = c.CompletionService.Complete(ctx, prompt)
		return err
	})
	return out, err
}
