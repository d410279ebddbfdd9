package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Default ingestion tuning.
const (
	DefaultUpsertBatchSize   = 500
	DefaultUpsertConcurrency = 4
)

// IngestConfig holds ingestion settings.
type IngestConfig struct {
	// Collection is the target vector collection.
	Collection string

	// UpsertBatchSize bounds points per upsert call.
	UpsertBatchSize int

	// UpsertConcurrency bounds parallel upsert calls.
	UpsertConcurrency int
}

// IngestService builds the vector corpus from a document source.
// Ingestion is additive; re-running it duplicates content unless the
// collection is cleared first.
type IngestService struct {
	source   driven.DocumentSource
	splitter driven.Splitter
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	cfg      IngestConfig
	newID    func() string
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	source driven.DocumentSource,
	splitter driven.Splitter,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	cfg IngestConfig,
) *IngestService {
	if cfg.UpsertBatchSize <= 0 {
		cfg.UpsertBatchSize = DefaultUpsertBatchSize
	}
	if cfg.UpsertConcurrency <= 0 {
		cfg.UpsertConcurrency = DefaultUpsertConcurrency
	}
	return &IngestService{
		source:   source,
		splitter: splitter,
		embedder: embedder,
		index:    index,
		cfg:      cfg,
		newID:    uuid.NewString,
	}
}

// Ingest chunks, embeds and upserts every source document.
func (s *IngestService) Ingest(ctx context.Context) (*domain.IngestResult, error) {
	logger.Section("Ingestion")
	defer logger.Elapsed("ingestion", time.Now())

	docs, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	result := &domain.IngestResult{
		Documents:  len(docs),
		Collection: s.cfg.Collection,
	}
	if len(docs) == 0 {
		logger.Warn("No documents found, nothing to ingest")
		return result, nil
	}

	model := s.embedder.ModelName()
	var chunks []domain.Chunk
	for _, doc := range docs {
		pieces := s.splitter.Split(doc.Text)
		logger.Debug("Document %q: %d chunks", doc.Name, len(pieces))
		for i, text := range pieces {
			chunks = append(chunks, domain.Chunk{
				Source:         doc.Name,
				Index:          i,
				Text:           text,
				EmbeddingModel: model,
			})
		}
	}
	if len(chunks) == 0 {
		logger.Warn("Documents produced no chunks, nothing to ingest")
		return result, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	logger.Info("Embedding %d chunks with %s", len(texts), model)
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d",
			domain.ErrEmbeddingService, len(chunks), len(vectors))
	}

	dim := len(vectors[0])
	if err := s.index.EnsureCollection(ctx, s.cfg.Collection, dim); err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", s.cfg.Collection, err)
	}
	result.Dimension = dim

	points := make([]domain.IndexedPoint, len(chunks))
	for i := range chunks {
		chunks[i].ID = s.newID()
		points[i] = domain.IndexedPoint{
			ID:      chunks[i].ID,
			Vector:  vectors[i],
			Payload: chunks[i],
		}
	}

	if err := s.upsert(ctx, points); err != nil {
		return nil, err
	}

	result.Chunks = len(points)
	logger.Info("Indexed %d chunks from %d documents into %q", result.Chunks, result.Documents, result.Collection)
	return result, nil
}

// upsert writes points in parallel batches. Batches are independent, so a
// failure leaves the batches that already succeeded committed.
func (s *IngestService) upsert(ctx context.Context, points []domain.IndexedPoint) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.UpsertConcurrency)

	for start := 0; start < len(points); start += s.cfg.UpsertBatchSize {
		end := min(start+s.cfg.UpsertBatchSize, len(points))
		batch := points[start:end]
		g.Go(func() error {
			logger.Debug("Upserting points %d-%d", start, end)
			if err := s.index.Upsert(gctx, s.cfg.Collection, batch); err != nil {
				return fmt.Errorf("upsert points %d-%d: %w", start, end, err)
			}
			return nil
		})
	}

	return g.Wait()
}
