package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// VectorIndex stores embedded chunks in named collections and answers
// top-k nearest neighbour queries using cosine similarity.
//
// Failures wrap domain.ErrVectorIndex. A missing collection is reported as
// domain.ErrCollectionNotFound and a dimension conflict as
// domain.ErrDimensionMismatch.
type VectorIndex interface {
	// EnsureCollection creates the collection if absent. It is a no-op when
	// the collection exists with the same dimension and fails with
	// domain.ErrDimensionMismatch when it exists with a different one.
	EnsureCollection(ctx context.Context, name string, dimension int) error

	// Upsert inserts or replaces points by ID. Large inputs are written in
	// batches; a failed batch leaves earlier batches committed.
	Upsert(ctx context.Context, name string, points []domain.IndexedPoint) error

	// Query returns up to topK points nearest to vector, best match first,
	// with payload. Points not matching filter are excluded.
	Query(ctx context.Context, name string, vector []float32, topK int, filter domain.QueryFilter) (domain.RetrievalResult, error)

	// Collections lists collection names.
	Collections(ctx context.Context) ([]string, error)

	// Info describes a collection.
	Info(ctx context.Context, name string) (*domain.CollectionInfo, error)

	// DeleteCollection removes a collection and all its points.
	// Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Close releases resources.
	Close() error
}
