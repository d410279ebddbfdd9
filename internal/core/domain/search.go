package domain

// ScoredChunk is a single retrieval hit.
type ScoredChunk struct {
	// Score is the similarity to the query, higher is better.
	Score float64

	// Chunk is the stored payload.
	Chunk Chunk
}

// RetrievalResult is an ordered list of hits, best match first.
type RetrievalResult []ScoredChunk

// Texts returns the chunk texts in ranking order.
func (r RetrievalResult) Texts() []string {
	texts := make([]string, len(r))
	for i, hit := range r {
		texts[i] = hit.Chunk.Text
	}
	return texts
}

// QueryFilter restricts a vector query to points with matching payload.
// Empty fields are not applied.
type QueryFilter struct {
	// EmbeddingModel matches the embedding_model payload field.
	EmbeddingModel string

	// Source matches the source payload field.
	Source string
}

// IsEmpty reports whether no condition is set.
func (f QueryFilter) IsEmpty() bool {
	return f.EmbeddingModel == "" && f.Source == ""
}

// Matches reports whether a chunk satisfies the filter.
func (f QueryFilter) Matches(c Chunk) bool {
	if f.EmbeddingModel != "" && c.EmbeddingModel != f.EmbeddingModel {
		return false
	}
	if f.Source != "" && c.Source != f.Source {
		return false
	}
	return true
}

// CollectionInfo describes a vector index collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string

	// Dimension is the fixed vector size.
	Dimension int

	// Points is the number of stored points.
	Points int64
}

// IngestResult summarises one ingestion run.
type IngestResult struct {
	// Documents is the number of source documents read.
	Documents int

	// Chunks is the number of points upserted.
	Chunks int

	// Collection is the target collection.
	Collection string

	// Dimension is the vector size of the collection.
	Dimension int
}

// IndexStatus reports the state of the vector index and document source.
type IndexStatus struct {
	// Collections lists every collection in the index.
	Collections []string

	// Active describes the configured collection, nil if it does not exist.
	Active *CollectionInfo

	// Documents lists the source document names available for ingestion.
	Documents []string
}
