package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/source/filesystem"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/tracing"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/vector"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/logger"
	"github.com/custodia-labs/ragchat/internal/postprocessors"
)

// Watcher reports changed document names under the source directory.
type Watcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}

// HealthCheck is a named connectivity probe used by `status --ping`.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// App holds the services assembled from settings for one process.
type App struct {
	Settings *domain.Settings

	Ingest driving.IngestService
	Index  driving.IndexService
	Search driving.SearchService
	Answer driving.AnswerService
	Chat   driving.ChatService

	Watcher Watcher
	Checks  []HealthCheck

	closers []io.Closer
}

// NewApp builds every adapter and service from settings. Clients are
// created once here and injected; nothing is resolved lazily.
func NewApp(ctx context.Context, settings *domain.Settings) (_ *App, err error) {
	app := &App{Settings: settings}
	defer func() {
		if err != nil {
			app.Close() //nolint:errcheck
		}
	}()

	logger.Section("Assembling services")

	embedding, err := ai.CreateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	app.closers = append(app.closers, embedding)
	logger.Debug("Embedding: %s (%s)", settings.Embedding.Provider, embedding.ModelName())

	completion, err := ai.CreateCompletionService(ctx, &settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("completion service: %w", err)
	}
	app.closers = append(app.closers, completion)
	logger.Debug("Completion: %s (%s)", settings.LLM.Provider, completion.ModelName())

	index, err := vector.NewIndex(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}
	app.closers = append(app.closers, index)
	logger.Debug("Vector index: %s, collection %q", settings.VectorIndex.Backend, settings.VectorIndex.Collection)

	store, err := storage.NewConversationStore(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("conversation store: %w", err)
	}
	app.closers = append(app.closers, store)
	logger.Debug("Conversation store: %s", settings.Conversation.Backend)

	tracer, err := tracing.NewTracer(settings.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracer: %w", err)
	}
	if tracer != nil {
		app.closers = append(app.closers, tracer)
		logger.Debug("Tracing: %s", settings.Tracing.Provider)
	}

	splitter, err := postprocessors.NewSplitter(settings.Chunking)
	if err != nil {
		return nil, err
	}

	source := filesystem.New(filesystem.Config{
		Dir:         settings.Source.Dir,
		Pattern:     settings.Source.Pattern,
		IncludeHTML: settings.Source.IncludeHTML,
	})
	app.closers = append(app.closers, source)
	app.Watcher = source

	app.assemble(source, splitter, embedding, completion, index, store, tracer)

	app.Checks = []HealthCheck{
		{Name: "embedding " + embedding.ModelName(), Ping: func(ctx context.Context) error { return ai.Ping(ctx, embedding) }},
		{Name: "completion " + completion.ModelName(), Ping: func(ctx context.Context) error { return ai.Ping(ctx, completion) }},
	}

	return app, nil
}

// assemble wires the core services over already constructed adapters.
func (a *App) assemble(
	source driven.DocumentSource,
	splitter driven.Splitter,
	embedding driven.EmbeddingService,
	completion driven.CompletionService,
	index driven.VectorIndex,
	store driven.ConversationStore,
	tracer driven.Tracer,
) {
	s := a.Settings
	embedder := services.NewBatchEmbedder(embedding, s.Embedding.BatchSize)

	ingest := services.NewIngestService(source, splitter, embedder, index, services.IngestConfig{
		Collection:        s.VectorIndex.Collection,
		UpsertBatchSize:   s.VectorIndex.UpsertBatchSize,
		UpsertConcurrency: s.VectorIndex.UpsertConcurrency,
	})
	retriever := services.NewRetriever(embedder, index, s.VectorIndex.Collection, s.Retrieval.TopK)
	answer := services.NewAnswerService(retriever, completion, tracer, s.Retrieval.TopK)

	a.Ingest = ingest
	a.Index = services.NewIndexService(index, source, ingest, s.VectorIndex.Collection)
	a.Search = retriever
	a.Answer = answer
	a.Chat = services.NewChatService(store, answer, s.Conversation.HistoryLimit)
}

// Close releases adapters in reverse construction order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
