// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service for the configured
// provider. It is wrapped with pacing and retries only when configured.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding settings missing", domain.ErrConfiguration)
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc, err = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		svc, err = geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama, openai or gemini",
			domain.ErrConfiguration)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrConfiguration, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	rl := ratelimit.Config{RequestsPerMinute: settings.RequestsPerMinute, MaxRetries: settings.MaxRetries}
	if !rl.Enabled() {
		return svc, nil
	}
	return ratelimit.NewEmbedder(svc, rl), nil
}

// CreateCompletionService creates the completion service for the configured
// provider. It is wrapped with pacing and retries only when configured.
func CreateCompletionService(ctx context.Context, settings *domain.LLMSettings) (driven.CompletionService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: llm settings missing", domain.ErrConfiguration)
	}

	var (
		svc driven.CompletionService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc, err = ollamallm.NewCompletionService(ollamallm.Config{
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewCompletionService(openaillm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		})

	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewCompletionService(anthropicllm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		})

	case domain.AIProviderGemini:
		svc, err = geminillm.NewCompletionService(ctx, geminillm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported llm provider: %s", domain.ErrConfiguration, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	rl := ratelimit.Config{RequestsPerMinute: settings.RequestsPerMinute, MaxRetries: settings.MaxRetries}
	if !rl.Enabled() {
		return svc, nil
	}
	return ratelimit.NewCompleter(svc, rl), nil
}

// Pinger is implemented by every provider adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping validates connectivity to a provider with a short timeout.
func Ping(ctx context.Context, svc Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
