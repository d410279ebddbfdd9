package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindBool
)

type binding struct {
	kind  settingKind
	apply func(s *domain.Settings, raw string) error
}

// settingField maps a config file key and its environment variables onto a
// field of domain.Settings. Environment variables win over the file and the
// first variable that is set wins.
type settingField struct {
	key string
	env []string
	binding
}

func text[T ~string](field func(*domain.Settings) *T) binding {
	return binding{kind: kindString, apply: func(s *domain.Settings, raw string) error {
		*field(s) = T(raw)
		return nil
	}}
}

func number(field func(*domain.Settings) *int) binding {
	return binding{kind: kindInt, apply: func(s *domain.Settings, raw string) error {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("not an integer: %q", raw)
		}
		*field(s) = n
		return nil
	}}
}

func boolean(field func(*domain.Settings) *bool) binding {
	return binding{kind: kindBool, apply: func(s *domain.Settings, raw string) error {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("not a boolean: %q", raw)
		}
		*field(s) = b
		return nil
	}}
}

//nolint:gosec // G101: These are config key names, not actual credentials.
var settingFields = []settingField{
	{"embedding.provider", []string{"EMBEDDING_PROVIDER"}, text(func(s *domain.Settings) *domain.AIProvider { return &s.Embedding.Provider })},
	{"embedding.model", []string{"EMBEDDING_MODEL"}, text(func(s *domain.Settings) *string { return &s.Embedding.Model })},
	{"embedding.base_url", []string{"EMBEDDING_BASE_URL"}, text(func(s *domain.Settings) *string { return &s.Embedding.BaseURL })},
	{"embedding.api_key", []string{"EMBEDDING_API_KEY"}, text(func(s *domain.Settings) *string { return &s.Embedding.APIKey })},
	{"embedding.batch_size", []string{"EMBEDDING_BATCH_SIZE"}, number(func(s *domain.Settings) *int { return &s.Embedding.BatchSize })},
	{"embedding.requests_per_minute", []string{"EMBEDDING_RPM"}, number(func(s *domain.Settings) *int { return &s.Embedding.RequestsPerMinute })},
	{"embedding.max_retries", []string{"EMBEDDING_MAX_RETRIES"}, number(func(s *domain.Settings) *int { return &s.Embedding.MaxRetries })},

	{"llm.provider", []string{"LLM_PROVIDER"}, text(func(s *domain.Settings) *domain.AIProvider { return &s.LLM.Provider })},
	{"llm.model", []string{"CHAT_MODEL"}, text(func(s *domain.Settings) *string { return &s.LLM.Model })},
	{"llm.base_url", []string{"LLM_BASE_URL"}, text(func(s *domain.Settings) *string { return &s.LLM.BaseURL })},
	{"llm.api_key", []string{"LLM_API_KEY"}, text(func(s *domain.Settings) *string { return &s.LLM.APIKey })},
	{"llm.max_tokens", []string{"LLM_MAX_TOKENS"}, number(func(s *domain.Settings) *int { return &s.LLM.MaxTokens })},
	{"llm.requests_per_minute", []string{"LLM_RPM"}, number(func(s *domain.Settings) *int { return &s.LLM.RequestsPerMinute })},
	{"llm.max_retries", []string{"LLM_MAX_RETRIES"}, number(func(s *domain.Settings) *int { return &s.LLM.MaxRetries })},

	{"chunking.strategy", []string{"CHUNK_STRATEGY"}, text(func(s *domain.Settings) *string { return &s.Chunking.Strategy })},
	{"chunking.size", []string{"CHUNK_SIZE"}, number(func(s *domain.Settings) *int { return &s.Chunking.Size })},
	{"chunking.overlap", []string{"CHUNK_OVERLAP"}, number(func(s *domain.Settings) *int { return &s.Chunking.Overlap })},

	{"vector.backend", []string{"VECTOR_BACKEND"}, text(func(s *domain.Settings) *domain.VectorBackend { return &s.VectorIndex.Backend })},
	{"vector.collection", []string{"QDRANT_COLLECTION", "VECTOR_COLLECTION"}, text(func(s *domain.Settings) *string { return &s.VectorIndex.Collection })},
	{"vector.upsert_batch_size", []string{"UPSERT_BATCH_SIZE"}, number(func(s *domain.Settings) *int { return &s.VectorIndex.UpsertBatchSize })},
	{"vector.upsert_concurrency", []string{"UPSERT_CONCURRENCY"}, number(func(s *domain.Settings) *int { return &s.VectorIndex.UpsertConcurrency })},
	{"vector.qdrant.host", []string{"QDRANT_HOST"}, text(func(s *domain.Settings) *string { return &s.VectorIndex.Qdrant.Host })},
	{"vector.qdrant.port", []string{"QDRANT_PORT"}, number(func(s *domain.Settings) *int { return &s.VectorIndex.Qdrant.Port })},
	{"vector.redis.addr", []string{"REDIS_ADDR"}, text(func(s *domain.Settings) *string { return &s.VectorIndex.Redis.Addr })},
	{"vector.redis.password", []string{"REDIS_PASSWORD"}, text(func(s *domain.Settings) *string { return &s.VectorIndex.Redis.Password })},
	{"vector.redis.db", []string{"REDIS_DB"}, number(func(s *domain.Settings) *int { return &s.VectorIndex.Redis.DB })},

	{"retrieval.top_k", []string{"TOP_K"}, number(func(s *domain.Settings) *int { return &s.Retrieval.TopK })},

	{"conversation.backend", []string{"CONVERSATION_BACKEND"}, text(func(s *domain.Settings) *domain.ConversationBackend { return &s.Conversation.Backend })},
	{"conversation.sqlite_path", []string{"SQLITE_PATH"}, text(func(s *domain.Settings) *string { return &s.Conversation.SQLitePath })},
	{"conversation.history_limit", []string{"HISTORY_LIMIT"}, number(func(s *domain.Settings) *int { return &s.Conversation.HistoryLimit })},

	{"postgres.host", []string{"PG_HOST"}, text(func(s *domain.Settings) *string { return &s.Postgres.Host })},
	{"postgres.port", []string{"PG_PORT"}, number(func(s *domain.Settings) *int { return &s.Postgres.Port })},
	{"postgres.user", []string{"PG_USER"}, text(func(s *domain.Settings) *string { return &s.Postgres.User })},
	{"postgres.password", []string{"PG_PASSWORD"}, text(func(s *domain.Settings) *string { return &s.Postgres.Password })},
	{"postgres.database", []string{"PG_DB"}, text(func(s *domain.Settings) *string { return &s.Postgres.Database })},
	{"postgres.sslmode", []string{"PG_SSLMODE"}, text(func(s *domain.Settings) *string { return &s.Postgres.SSLMode })},

	{"source.dir", []string{"DATA_DIR"}, text(func(s *domain.Settings) *string { return &s.Source.Dir })},
	{"source.pattern", []string{"SOURCE_PATTERN"}, text(func(s *domain.Settings) *string { return &s.Source.Pattern })},
	{"source.include_html", []string{"SOURCE_INCLUDE_HTML"}, boolean(func(s *domain.Settings) *bool { return &s.Source.IncludeHTML })},

	{"tracing.provider", []string{"TRACING_PROVIDER"}, text(func(s *domain.Settings) *domain.TracingProvider { return &s.Tracing.Provider })},
	{"tracing.langfuse.public_key", []string{"LANGFUSE_PUBLIC_KEY"}, text(func(s *domain.Settings) *string { return &s.Tracing.Langfuse.PublicKey })},
	{"tracing.langfuse.secret_key", []string{"LANGFUSE_SECRET_KEY"}, text(func(s *domain.Settings) *string { return &s.Tracing.Langfuse.SecretKey })},
	{"tracing.langfuse.host", []string{"LANGFUSE_HOST"}, text(func(s *domain.Settings) *string { return &s.Tracing.Langfuse.Host })},
	{"tracing.otel.file", []string{"OTEL_TRACES_FILE"}, text(func(s *domain.Settings) *string { return &s.Tracing.OTel.File })},

	{"defaults.user", []string{"RAGCHAT_USER"}, text(func(s *domain.Settings) *string { return &s.DefaultUser })},
	{"defaults.session", []string{"RAGCHAT_SESSION"}, text(func(s *domain.Settings) *string { return &s.DefaultSession })},
}

// providerKeyEnv names the conventional API key variable per provider.
// It is consulted only when no explicit key is configured.
var providerKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
	domain.AIProviderGemini:    "GEMINI_API_KEY",
}

// SettingsService resolves settings from defaults, the config file and the
// environment, in increasing order of precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   LookupEnv
}

// NewSettingsService creates a new settings service.
// lookupEnv is usually os.LookupEnv; nil disables environment overrides.
func NewSettingsService(configStore driven.ConfigStore, lookupEnv LookupEnv) *SettingsService {
	if lookupEnv == nil {
		lookupEnv = func(string) (string, bool) { return "", false }
	}
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   lookupEnv,
	}
}

// Load resolves and validates settings.
func (s *SettingsService) Load() (*domain.Settings, error) {
	settings, err := s.resolve()
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Resolve returns settings without validation. Unparseable values keep
// their defaults.
func (s *SettingsService) Resolve() *domain.Settings {
	settings, _ := s.resolve()
	return settings
}

func (s *SettingsService) resolve() (*domain.Settings, error) {
	settings := domain.DefaultSettings()
	settings.Conversation.SQLitePath = filepath.Join(filepath.Dir(s.configStore.Path()), "conversations.db")

	var errs []error
	explicit := make(map[string]bool)
	for _, f := range settingFields {
		raw, ok := s.raw(f)
		if !ok {
			continue
		}
		explicit[f.key] = true
		if err := f.apply(&settings, raw); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", domain.ErrConfiguration, f.key, err))
		}
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.env(providerKeyEnv[settings.Embedding.Provider])
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.env(providerKeyEnv[settings.LLM.Provider])
	}

	// A changed provider without a model falls back to that provider's default.
	if !explicit["embedding.model"] {
		if model, ok := domain.DefaultEmbeddingModels()[settings.Embedding.Provider]; ok {
			settings.Embedding.Model = model
		}
	}
	if !explicit["llm.model"] {
		if model, ok := domain.DefaultLLMModels()[settings.LLM.Provider]; ok {
			settings.LLM.Model = model
		}
	}

	// Langfuse keys alone are enough to turn tracing on.
	if !explicit["tracing.provider"] &&
		settings.Tracing.Langfuse.PublicKey != "" && settings.Tracing.Langfuse.SecretKey != "" {
		settings.Tracing.Provider = domain.TracingLangfuse
	}

	return &settings, errors.Join(errs...)
}

// raw returns the effective string value of a field, environment first.
func (s *SettingsService) raw(f settingField) (string, bool) {
	for _, name := range f.env {
		if v, ok := s.lookupEnv(name); ok && v != "" {
			return v, true
		}
	}
	v, ok := s.configStore.Get(f.key)
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}

func (s *SettingsService) env(name string) string {
	if name == "" {
		return ""
	}
	v, _ := s.lookupEnv(name)
	return v
}

// Set validates and persists a single config file key.
// Numeric and boolean keys are stored with their TOML types.
func (s *SettingsService) Set(key, value string) error {
	f, ok := lookupField(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	probe := domain.DefaultSettings()
	if err := f.apply(&probe, value); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	var stored any = value
	switch f.kind {
	case kindInt:
		n, _ := strconv.Atoi(value)
		stored = n
	case kindBool:
		b, _ := strconv.ParseBool(value)
		stored = b
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Get returns the raw config file value for key.
func (s *SettingsService) Get(key string) (any, bool) {
	return s.configStore.Get(key)
}

// Keys lists the keys present in the config file.
func (s *SettingsService) Keys() []string {
	return s.configStore.Keys()
}

// Path returns the config file location.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// KnownKeys lists every supported config key in declaration order.
func KnownKeys() []string {
	keys := make([]string, len(settingFields))
	for i, f := range settingFields {
		keys[i] = f.key
	}
	return keys
}

func lookupField(key string) (settingField, bool) {
	for _, f := range settingFields {
		if f.key == key {
			return f, true
		}
	}
	return settingField{}, false
}
