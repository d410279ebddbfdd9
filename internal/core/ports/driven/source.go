package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// DocumentSource enumerates the documents to ingest.
type DocumentSource interface {
	// Names lists document names without reading their content.
	Names(ctx context.Context) ([]string, error)

	// List returns every document with its full text.
	List(ctx context.Context) ([]domain.SourceDocument, error)
}

// Splitter splits document text into bounded, overlapping segments.
// Split never fails; parameter validation happens at construction.
type Splitter interface {
	Split(text string) []string
}
