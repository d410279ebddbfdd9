package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// IngestService builds the searchable corpus from the document source.
type IngestService interface {
	// Ingest chunks, embeds and upserts every source document.
	// Ingestion is additive: existing points are never removed.
	Ingest(ctx context.Context) (*domain.IngestResult, error)
}

// IndexService inspects and manages the vector index.
type IndexService interface {
	// Status reports collections, the active collection and source documents.
	Status(ctx context.Context) (*domain.IndexStatus, error)

	// Clear deletes the configured collection.
	Clear(ctx context.Context) error

	// Rebuild clears the configured collection and ingests again.
	Rebuild(ctx context.Context) (*domain.IngestResult, error)
}
