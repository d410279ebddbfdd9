package domain

// SourceDocument is a named text document enumerated by a DocumentSource.
type SourceDocument struct {
	// Name identifies the document, usually its base file name.
	Name string

	// Text is the full document content.
	Text string
}

// Chunk is a contiguous slice of a source document.
// Chunks are immutable once created; re-ingestion produces new chunks.
type Chunk struct {
	// ID is the unique point identifier assigned at ingestion time.
	ID string

	// Source names the originating document.
	Source string

	// Index is the zero-based position of this chunk within its source.
	Index int

	// Text is the chunk content.
	Text string

	// EmbeddingModel records which model produced the stored vector.
	EmbeddingModel string
}

// IndexedPoint is the unit stored in a vector index collection.
type IndexedPoint struct {
	// ID is an opaque unique identifier (UUID).
	ID string

	// Vector is the chunk embedding.
	Vector []float32

	// Payload is the chunk the vector was computed from.
	Payload Chunk
}

// Payload field names shared by vector index adapters.
const (
	PayloadText           = "text"
	PayloadSource         = "source"
	PayloadChunkIndex     = "chunk_idx"
	PayloadEmbeddingModel = "embedding_model"
)
