package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() Settings {
	s := DefaultSettings()
	s.Embedding.APIKey = "sk-embed"
	s.LLM.APIKey = "sk-llm"
	return s
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 800, s.Chunking.Size)
	assert.Equal(t, 200, s.Chunking.Overlap)
	assert.Equal(t, 256, s.Embedding.BatchSize)
	assert.Equal(t, 500, s.VectorIndex.UpsertBatchSize)
	assert.Equal(t, 5, s.Retrieval.TopK)
	assert.Equal(t, 50, s.Conversation.HistoryLimit)
	assert.Equal(t, "documents", s.VectorIndex.Collection)
	assert.Equal(t, "text-embedding-3-small", s.Embedding.Model)
	assert.Equal(t, "gpt-4o-mini", s.LLM.Model)
	assert.Equal(t, "session-1", s.DefaultSession)
}

func TestSettings_Validate(t *testing.T) {
	t.Run("valid settings pass", func(t *testing.T) {
		require.NoError(t, validSettings().Validate())
	})

	t.Run("missing api key fails fast", func(t *testing.T) {
		s := validSettings()
		s.LLM.APIKey = ""

		err := s.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConfiguration))
		assert.Contains(t, err.Error(), "llm provider openai requires an API key")
	})

	t.Run("ollama needs no api key", func(t *testing.T) {
		s := validSettings()
		s.Embedding = EmbeddingSettings{Provider: AIProviderOllama, Model: "nomic-embed-text", BatchSize: 64}
		s.LLM = LLMSettings{Provider: AIProviderOllama, Model: "llama3.2"}

		require.NoError(t, s.Validate())
	})

	t.Run("anthropic cannot embed", func(t *testing.T) {
		s := validSettings()
		s.Embedding.Provider = AIProviderAnthropic

		err := s.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not support embeddings")
	})

	t.Run("negative retries rejected", func(t *testing.T) {
		s := validSettings()
		s.LLM.MaxRetries = -1

		err := s.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm rate limit settings must not be negative")
	})

	t.Run("reports every problem", func(t *testing.T) {
		s := validSettings()
		s.VectorIndex.Backend = "faiss"
		s.Retrieval.TopK = 0
		s.Tracing.Provider = TracingLangfuse

		err := s.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown vector backend "faiss"`)
		assert.Contains(t, err.Error(), "top_k must be at least 1")
		assert.Contains(t, err.Error(), "langfuse tracing requires")
	})
}

func TestChunkingSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       ChunkingSettings
		wantErr bool
	}{
		{"defaults", ChunkingSettings{Size: 800, Overlap: 200}, false},
		{"no overlap", ChunkingSettings{Size: 100, Overlap: 0}, false},
		{"overlap equals size", ChunkingSettings{Size: 100, Overlap: 100}, true},
		{"overlap exceeds size", ChunkingSettings{Size: 20, Overlap: 50}, true},
		{"zero size", ChunkingSettings{Size: 0, Overlap: 0}, true},
		{"negative overlap", ChunkingSettings{Size: 10, Overlap: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfiguration))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPostgresSettings_DSN(t *testing.T) {
	p := PostgresSettings{
		Host:     "db",
		Port:     5432,
		User:     "appuser",
		Password: "p@ss",
		Database: "appdb",
		SSLMode:  "disable",
	}

	assert.Equal(t, "postgres://appuser:p%40ss@db:5432/appdb?sslmode=disable", p.DSN())
}

func TestQdrantSettings_Addr(t *testing.T) {
	assert.Equal(t, "localhost:6334", QdrantSettings{Host: "localhost", Port: 6334}.Addr())
}

func TestAIProvider(t *testing.T) {
	assert.True(t, AIProviderGemini.IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.False(t, AIProviderAnthropic.SupportsEmbeddings())
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}
