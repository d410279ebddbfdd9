package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/services"
)

func TestConfigShow_Defaults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute([]string{"config", "show"}, "")

	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "OpenAI (cloud)")
	assert.Contains(t, out, "API Key: (not set)")
	assert.Contains(t, out, "Qdrant: localhost:6334")
	assert.Contains(t, out, "Overlap: 200")
	// No API key in an empty store and environment lookups disabled.
	assert.Contains(t, out, "Warning:")
}

func TestConfigShow_Valid(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	settingsService = services.NewSettingsService(memory.NewConfigStore(map[string]any{
		"embedding.api_key":    "sk-abcdefghijklmnop",
		"llm.api_key":          "sk-abcdefghijklmnop",
		"conversation.backend": "memory",
	}), nil)

	out, _, err := execute([]string{"config"}, "")

	require.NoError(t, err)
	assert.Contains(t, out, "API Key: sk-a...mnop")
	assert.NotContains(t, out, "sk-abcdefghijklmnop")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestConfigSetAndGet(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute([]string{"config", "set", "llm.model", "gpt-4o"}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Set llm.model = gpt-4o")

	out, _, err = execute([]string{"config", "get", "llm.model"}, "")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o\n", out)
}

func TestConfigSet_MasksSecrets(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute([]string{"config", "set", "llm.api_key", "sk-abcdefghijklmnop"}, "")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-abcdefghijklmnop")

	out, _, err = execute([]string{"config", "get", "llm.api_key"}, "")
	require.NoError(t, err)
	assert.Equal(t, "sk-a...mnop\n", out)
}

func TestConfigSet_UnknownKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute([]string{"config", "set", "no.such.key", "x"}, "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigGet_NotSet(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute([]string{"config", "get", "llm.model"}, "")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigPath(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute([]string{"config", "path"}, "")

	require.NoError(t, err)
	assert.Equal(t, settingsService.Path()+"\n", out)
}

func TestConfigKeys(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	require.NoError(t, settingsService.Set("llm.model", "m"))

	out, _, err := execute([]string{"config", "keys"}, "")

	require.NoError(t, err)
	assert.Contains(t, out, "llm.model (set)")
	assert.Contains(t, out, "vector.qdrant.host\n")
	assert.Contains(t, out, "tracing.otel.file")
	assert.Contains(t, out, "chunking.strategy [fixed|recursive]\n")
}

func TestConfigWizard(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	// Embedding: Ollama, default model, custom URL. LLM: Anthropic, custom
	// model, API key. Documents: ./docs.
	input := "2\n\nhttp://ollama:11434\n2\nclaude-x\nsk-ant-123456789\n./docs\n"

	out, _, err := execute([]string{"config", "wizard"}, input)

	require.NoError(t, err)
	assert.Contains(t, out, "Set embedding provider to: Ollama (local)")
	assert.Contains(t, out, "Set llm provider to: Anthropic (cloud)")

	s := settingsService.Resolve()
	assert.Equal(t, domain.AIProviderOllama, s.Embedding.Provider)
	assert.Equal(t, domain.DefaultEmbeddingModels()[domain.AIProviderOllama], s.Embedding.Model)
	assert.Equal(t, "http://ollama:11434", s.Embedding.BaseURL)
	assert.Equal(t, domain.AIProviderAnthropic, s.LLM.Provider)
	assert.Equal(t, "claude-x", s.LLM.Model)
	assert.Equal(t, "sk-ant-123456789", s.LLM.APIKey)
	assert.Equal(t, "./docs", s.Source.Dir)
}

func TestParseChoice(t *testing.T) {
	assert.Equal(t, 1, parseChoice("", 3, 1))
	assert.Equal(t, 2, parseChoice("2", 3, 1))
	assert.Equal(t, 1, parseChoice("9", 3, 1))
	assert.Equal(t, 1, parseChoice("x", 3, 1))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-a...mnop", maskAPIKey("sk-abcdefghijklmnop"))
}

func TestIsSecretKey(t *testing.T) {
	assert.True(t, isSecretKey("embedding.api_key"))
	assert.True(t, isSecretKey("tracing.langfuse.secret_key"))
	assert.True(t, isSecretKey("postgres.password"))
	assert.False(t, isSecretKey("llm.model"))
}
