package domain

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or completion.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// SupportsEmbeddings returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderGemini
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	VectorBackendMemory   VectorBackend = "memory"
	VectorBackendQdrant   VectorBackend = "qdrant"
	VectorBackendPgvector VectorBackend = "pgvector"
	VectorBackendRedis    VectorBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendQdrant, VectorBackendPgvector, VectorBackendRedis:
		return true
	default:
		return false
	}
}

// ConversationBackend selects the conversation store implementation.
type ConversationBackend string

// Available conversation backends.
const (
	ConversationBackendMemory   ConversationBackend = "memory"
	ConversationBackendSQLite   ConversationBackend = "sqlite"
	ConversationBackendPostgres ConversationBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b ConversationBackend) IsValid() bool {
	switch b {
	case ConversationBackendMemory, ConversationBackendSQLite, ConversationBackendPostgres:
		return true
	default:
		return false
	}
}

// TracingProvider selects the tracing side channel.
type TracingProvider string

// Available tracing providers.
const (
	TracingNone     TracingProvider = "none"
	TracingLangfuse TracingProvider = "langfuse"
	TracingOTel     TracingProvider = "otel"
)

// IsValid returns true if the tracing provider is recognised.
func (p TracingProvider) IsValid() bool {
	switch p {
	case TracingNone, TracingLangfuse, TracingOTel:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// BatchSize bounds how many texts are sent per request.
	BatchSize int

	// RequestsPerMinute paces embedding calls when > 0.
	RequestsPerMinute int

	// MaxRetries retries rate limited calls with backoff. Zero disables retries.
	MaxRetries int
}

// LLMSettings holds completion provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// MaxTokens bounds the answer length. Zero uses the provider default.
	MaxTokens int

	// RequestsPerMinute paces completion calls when > 0.
	RequestsPerMinute int

	// MaxRetries retries rate limited calls with backoff. Zero disables retries.
	MaxRetries int
}

// ChunkingSettings controls document splitting.
type ChunkingSettings struct {
	// Strategy names the splitter: "recursive" (default) or "fixed".
	Strategy string

	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int
}

// QdrantSettings holds Qdrant connection settings.
type QdrantSettings struct {
	Host string
	// Port is the gRPC port.
	Port int
}

// Addr returns host:port.
func (q QdrantSettings) Addr() string {
	return net.JoinHostPort(q.Host, strconv.Itoa(q.Port))
}

// PostgresSettings holds Postgres connection settings.
type PostgresSettings struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns a libpq connection URL.
func (p PostgresSettings) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + p.Database,
	}
	q := url.Values{}
	q.Set("sslmode", p.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisSettings holds Redis connection settings.
type RedisSettings struct {
	Addr     string
	Password string
	DB       int
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend selects the implementation.
	Backend VectorBackend

	// Collection is the target collection name.
	Collection string

	// UpsertBatchSize bounds points per upsert request.
	UpsertBatchSize int

	// UpsertConcurrency bounds parallel upsert batches during ingestion.
	UpsertConcurrency int

	Qdrant QdrantSettings
	Redis  RedisSettings
}

// RetrievalSettings controls query-time retrieval.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int
}

// ConversationSettings controls the conversation store.
type ConversationSettings struct {
	// Backend selects the implementation.
	Backend ConversationBackend

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// HistoryLimit bounds how many messages are replayed into a prompt.
	HistoryLimit int
}

// SourceSettings controls the document source.
type SourceSettings struct {
	// Dir is the directory scanned for documents.
	Dir string

	// Pattern is a doublestar glob relative to Dir.
	Pattern string

	// IncludeHTML also ingests .html files converted to text.
	IncludeHTML bool
}

// LangfuseSettings holds Langfuse credentials.
type LangfuseSettings struct {
	PublicKey string
	SecretKey string
	Host      string
}

// OTelSettings controls the OpenTelemetry exporter.
type OTelSettings struct {
	// File receives JSON spans. Empty writes to stderr.
	File string
}

// TracingSettings controls the tracing side channel.
type TracingSettings struct {
	Provider TracingProvider
	Langfuse LangfuseSettings
	OTel     OTelSettings
}

// Settings holds all application settings.
// It is built once at process start and passed to constructors.
type Settings struct {
	Embedding    EmbeddingSettings
	LLM          LLMSettings
	Chunking     ChunkingSettings
	VectorIndex  VectorIndexSettings
	Retrieval    RetrievalSettings
	Conversation ConversationSettings
	Postgres     PostgresSettings
	Source       SourceSettings
	Tracing      TracingSettings

	// DefaultUser is used when no user is given.
	DefaultUser string

	// DefaultSession is used when no session is given.
	DefaultSession string
}

// DefaultSettings returns settings with sensible defaults.
// Credentials are left empty and must come from the config file or environment.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOpenAI,
			Model:     DefaultEmbeddingModels()[AIProviderOpenAI],
			BatchSize: 256,
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModels()[AIProviderOpenAI],
		},
		Chunking: ChunkingSettings{
			Strategy: "recursive",
			Size:     800,
			Overlap:  200,
		},
		VectorIndex: VectorIndexSettings{
			Backend:           VectorBackendQdrant,
			Collection:        "documents",
			UpsertBatchSize:   500,
			UpsertConcurrency: 4,
			Qdrant: QdrantSettings{
				Host: "localhost",
				Port: 6334,
			},
			Redis: RedisSettings{
				Addr: "localhost:6379",
			},
		},
		Retrieval: RetrievalSettings{
			TopK: 5,
		},
		Conversation: ConversationSettings{
			Backend:      ConversationBackendSQLite,
			HistoryLimit: DefaultHistoryLimit,
		},
		Postgres: PostgresSettings{
			Host:     "localhost",
			Port:     5432,
			User:     "appuser",
			Password: "apppass",
			Database: "appdb",
			SSLMode:  "disable",
		},
		Source: SourceSettings{
			Dir:     "data",
			Pattern: "*.txt",
		},
		Tracing: TracingSettings{
			Provider: TracingNone,
			Langfuse: LangfuseSettings{
				Host: "https://cloud.langfuse.com",
			},
		},
		DefaultUser:    DefaultUserID,
		DefaultSession: DefaultSessionID,
	}
}

// Validate checks the settings eagerly so misconfiguration fails at startup.
// All problems are reported together, each wrapping ErrConfiguration.
func (s Settings) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...))
	}

	if err := s.Chunking.Validate(); err != nil {
		errs = append(errs, err)
	}

	if !s.Embedding.Provider.SupportsEmbeddings() {
		fail("embedding provider %q does not support embeddings", s.Embedding.Provider)
	} else if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		fail("embedding provider %s requires an API key", s.Embedding.Provider)
	}
	if s.Embedding.Model == "" {
		fail("embedding model is required")
	}
	if s.Embedding.BatchSize <= 0 {
		fail("embedding batch size must be positive, got %d", s.Embedding.BatchSize)
	}
	if s.Embedding.RequestsPerMinute < 0 || s.Embedding.MaxRetries < 0 {
		fail("embedding rate limit settings must not be negative")
	}

	if !s.LLM.Provider.IsValid() {
		fail("unknown llm provider %q", s.LLM.Provider)
	} else if s.LLM.Provider.RequiresAPIKey() && s.LLM.APIKey == "" {
		fail("llm provider %s requires an API key", s.LLM.Provider)
	}
	if s.LLM.Model == "" {
		fail("llm model is required")
	}
	if s.LLM.RequestsPerMinute < 0 || s.LLM.MaxRetries < 0 {
		fail("llm rate limit settings must not be negative")
	}

	if !s.VectorIndex.Backend.IsValid() {
		fail("unknown vector backend %q", s.VectorIndex.Backend)
	}
	if s.VectorIndex.Collection == "" {
		fail("vector collection name is required")
	}
	if s.VectorIndex.UpsertBatchSize <= 0 {
		fail("upsert batch size must be positive, got %d", s.VectorIndex.UpsertBatchSize)
	}
	if s.VectorIndex.UpsertConcurrency <= 0 {
		fail("upsert concurrency must be positive, got %d", s.VectorIndex.UpsertConcurrency)
	}

	if s.Retrieval.TopK < 1 {
		fail("retrieval top_k must be at least 1, got %d", s.Retrieval.TopK)
	}

	if !s.Conversation.Backend.IsValid() {
		fail("unknown conversation backend %q", s.Conversation.Backend)
	}
	if s.Conversation.HistoryLimit < 0 {
		fail("history limit must not be negative, got %d", s.Conversation.HistoryLimit)
	}

	if s.Source.Dir == "" {
		fail("source directory is required")
	}

	switch s.Tracing.Provider {
	case TracingNone, TracingOTel:
	case TracingLangfuse:
		if s.Tracing.Langfuse.PublicKey == "" || s.Tracing.Langfuse.SecretKey == "" {
			fail("langfuse tracing requires public and secret keys")
		}
	default:
		fail("unknown tracing provider %q", s.Tracing.Provider)
	}

	return errors.Join(errs...)
}

// Validate checks the chunking parameters.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrConfiguration, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)",
			ErrConfiguration, c.Overlap, c.Size)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support completion.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}
