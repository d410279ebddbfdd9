package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// Adapters wrap provider failures with these sentinels so callers can
// classify them with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates invalid or incomplete configuration.
	// It is fatal and never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrDimensionMismatch indicates an existing collection was created with a
	// different vector dimension than the current embedding model produces.
	ErrDimensionMismatch = fmt.Errorf("%w: vector dimension mismatch", ErrConfiguration)

	// Service Errors.

	// ErrEmbeddingService indicates the embedding provider failed.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrVectorIndex indicates the vector index failed.
	ErrVectorIndex = errors.New("vector index error")

	// ErrCollectionNotFound indicates the named collection does not exist.
	ErrCollectionNotFound = fmt.Errorf("%w: collection not found", ErrVectorIndex)

	// ErrCompletionService indicates the language model provider failed.
	ErrCompletionService = errors.New("completion service error")

	// ErrConversationStore indicates the conversation store failed.
	ErrConversationStore = errors.New("conversation store error")

	// Provider Errors.

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuth indicates the provider rejected the configured credentials.
	ErrAuth = errors.New("authentication failed")
)

// RateLimitError is returned when a provider throttles a request.
// It matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	// RetryAfter is the server supplied wait, zero when absent.
	RetryAfter time.Duration

	// Message is the provider error text.
	Message string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s): %s", ErrRateLimited, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("%s: %s", ErrRateLimited, e.Message)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
