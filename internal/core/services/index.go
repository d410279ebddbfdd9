package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService reports on and manages the configured collection.
type IndexService struct {
	index      driven.VectorIndex
	source     driven.DocumentSource
	ingest     driving.IngestService
	collection string
}

// NewIndexService creates an index management service.
func NewIndexService(
	index driven.VectorIndex,
	source driven.DocumentSource,
	ingest driving.IngestService,
	collection string,
) *IndexService {
	return &IndexService{
		index:      index,
		source:     source,
		ingest:     ingest,
		collection: collection,
	}
}

// Status lists collections, describes the configured one and the documents
// available for ingestion.
func (s *IndexService) Status(ctx context.Context) (*domain.IndexStatus, error) {
	collections, err := s.index.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	status := &domain.IndexStatus{Collections: collections}

	info, err := s.index.Info(ctx, s.collection)
	switch {
	case err == nil:
		status.Active = info
	case errors.Is(err, domain.ErrCollectionNotFound):
		logger.Debug("Collection %q does not exist yet", s.collection)
	default:
		return nil, fmt.Errorf("collection info %s: %w", s.collection, err)
	}

	names, err := s.source.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	status.Documents = names

	return status, nil
}

// Clear deletes the configured collection.
func (s *IndexService) Clear(ctx context.Context) error {
	logger.Info("Deleting collection %q", s.collection)
	if err := s.index.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", s.collection, err)
	}
	return nil
}

// Rebuild clears the collection and ingests every document again.
func (s *IndexService) Rebuild(ctx context.Context) (*domain.IngestResult, error) {
	if err := s.Clear(ctx); err != nil {
		return nil, err
	}
	return s.ingest.Ingest(ctx)
}
