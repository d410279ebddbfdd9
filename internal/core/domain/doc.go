// Package domain defines the core business entities for ragchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A bounded slice of a source document, the unit of retrieval
//   - IndexedPoint: A chunk plus its embedding as stored in the vector index
//   - ScoredChunk: A retrieval hit ranked by similarity
//   - Message: One turn of a persisted conversation
//   - Settings: The validated application configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
