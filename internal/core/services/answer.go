package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService runs the answering pipeline:
// retrieve, build prompt, generate, then trace.
type AnswerService struct {
	retriever  driving.SearchService
	prompts    PromptBuilder
	completion driven.CompletionService
	tracer     driven.Tracer
	topK       int
	now        func() time.Time
}

// NewAnswerService creates an answering pipeline.
// The tracer is optional (can be nil). A topK <= 0 uses DefaultTopK.
func NewAnswerService(
	retriever driving.SearchService,
	completion driven.CompletionService,
	tracer driven.Tracer,
	topK int,
) *AnswerService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &AnswerService{
		retriever:  retriever,
		completion: completion,
		tracer:     tracer,
		topK:       topK,
		now:        time.Now,
	}
}

// Answer returns the raw model output for req. Retrieval and completion
// failures are returned unchanged; no answer is produced without context.
// Tracing failures never affect the result.
func (s *AnswerService) Answer(ctx context.Context, req domain.AnswerRequest) (string, error) {
	started := s.now()

	hits, err := s.retriever.Search(ctx, req.Query, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	chunks := hits.Texts()

	prompt := s.prompts.Build(req.Query, chunks, req.History)
	logger.Section("Generation")
	logger.Debug("Prompt: %d chars, %d chunks, %d history turns", len(prompt), len(chunks), len(req.History))

	genStart := s.now()
	answer, err := s.completion.Complete(ctx, prompt)
	logger.Elapsed("generation", genStart)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	s.trace(ctx, domain.TraceRecord{
		Name:            domain.TraceNameChat,
		UserID:          req.UserID,
		SessionID:       req.SessionID,
		Query:           req.Query,
		RetrievedChunks: chunks,
		Prompt:          prompt,
		Model:           s.completion.ModelName(),
		Output:          answer,
		StartedAt:       started,
		EndedAt:         s.now(),
	})

	return answer, nil
}

// trace sends rec to the tracer, discarding errors and panics.
func (s *AnswerService) trace(ctx context.Context, rec domain.TraceRecord) {
	if s.tracer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Tracer panicked, trace discarded: %v", r)
		}
	}()
	if err := s.tracer.Trace(ctx, rec); err != nil {
		logger.Warn("Trace discarded: %v", err)
	}
}
