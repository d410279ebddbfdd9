// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Turns text into vectors (OpenAI, Ollama, Gemini)
//   - VectorIndex: Collection store with top-k similarity query (Qdrant, pgvector, Redis, memory)
//   - CompletionService: Language model completion (OpenAI, Anthropic, Ollama, Gemini)
//   - ConversationStore: Append-only chat history (SQLite, Postgres, memory)
//   - DocumentSource: Enumerates documents to ingest (filesystem)
//   - Splitter: Splits document text into overlapping chunks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application behaves identically without them:
//
//   - Tracer: Best-effort telemetry for answering runs. Failures are discarded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
