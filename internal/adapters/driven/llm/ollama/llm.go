// Package ollama provides a completion service adapter using Ollama.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure CompletionService implements the interface.
var _ driven.CompletionService = (*CompletionService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 5 * time.Minute
)

// Config holds configuration for the Ollama completion service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the chat model to use (default: llama3.2).
	Model string

	// MaxTokens maps to the num_predict option. Zero leaves the model default.
	MaxTokens int

	// Timeout is the request timeout (default: 5m, local models can be slow).
	Timeout time.Duration
}

// CompletionService generates answers with the Ollama chat API.
type CompletionService struct {
	client    *api.Client
	model     string
	maxTokens int
}

// NewCompletionService creates a new Ollama completion service.
func NewCompletionService(cfg Config) (*CompletionService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: invalid base url %q: %w", domain.ErrConfiguration, cfg.BaseURL, err)
	}

	return &CompletionService{
		client:    api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Complete sends prompt as a single user message without streaming.
func (s *CompletionService) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    s.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
	}
	if s.maxTokens > 0 {
		req.Options = map[string]any{"num_predict": s.maxTokens}
	}

	var answer strings.Builder
	err := s.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		answer.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama: %w", classify(err))
	}
	return answer.String(), nil
}

// ModelName returns the name of the model being used.
func (s *CompletionService) ModelName() string {
	return s.model
}

// Ping checks the server is up and the model has been pulled.
func (s *CompletionService) Ping(ctx context.Context) error {
	if _, err := s.client.Show(ctx, &api.ShowRequest{Model: s.model}); err != nil {
		return fmt.Errorf("ollama: model %s: %w", s.model, classify(err))
	}
	return nil
}

// Close releases resources.
func (s *CompletionService) Close() error {
	return nil
}

func classify(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return &domain.RateLimitError{Message: statusErr.ErrorMessage}
	}
	return fmt.Errorf("%w: %w", domain.ErrCompletionService, err)
}
