// Package gemini provides a completion service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	embedgemini "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure CompletionService implements the interface.
var _ driven.CompletionService = (*CompletionService)(nil)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Config holds configuration for the Gemini completion service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the model to use (default: gemini-2.0-flash).
	Model string

	// MaxTokens bounds the answer length. Zero leaves it to the provider.
	MaxTokens int
}

// CompletionService generates answers with Gemini.
type CompletionService struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewCompletionService creates a new Gemini completion service.
func NewCompletionService(ctx context.Context, cfg Config) (*CompletionService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini: API key is required", domain.ErrConfiguration)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: create client: %w", domain.ErrConfiguration, err)
	}

	return &CompletionService{client: client, model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

// Complete generates content for prompt and returns its text.
func (s *CompletionService) Complete(ctx context.Context, prompt string) (string, error) {
	var config *genai.GenerateContentConfig
	if s.maxTokens > 0 {
		config = &genai.GenerateContentConfig{MaxOutputTokens: int32(s.maxTokens)}
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", embedgemini.Classify(err, domain.ErrCompletionService))
	}
	return resp.Text(), nil
}

// ModelName returns the name of the model being used.
func (s *CompletionService) ModelName() string {
	return s.model
}

// Ping fetches the model metadata to validate the key and model name.
func (s *CompletionService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model, nil); err != nil {
		return fmt.Errorf("gemini: %w", embedgemini.Classify(err, domain.ErrCompletionService))
	}
	return nil
}

// Close releases resources.
func (s *CompletionService) Close() error {
	return nil
}
