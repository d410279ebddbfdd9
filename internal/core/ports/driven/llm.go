package driven

import "context"

// CompletionService invokes a language model with a single prompt.
//
// Implementations send the prompt as one user turn and return the raw model
// output. Failures wrap domain.ErrCompletionService.
//
// Implementations may include:
//   - OpenAI (gpt-4o-mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
//   - Gemini
type CompletionService interface {
	// Complete returns the model output for prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
