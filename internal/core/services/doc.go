// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The answering pipeline is Retriever -> PromptBuilder -> CompletionService,
// with an optional Tracer. The ingestion pipeline is DocumentSource ->
// Splitter -> BatchEmbedder -> VectorIndex.
package services
