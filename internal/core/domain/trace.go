package domain

import "time"

// TraceRecord captures one answering run for the tracing side channel.
type TraceRecord struct {
	// Name labels the trace.
	Name string

	UserID    string
	SessionID string

	// Query is the user question.
	Query string

	// RetrievedChunks holds the context texts in ranking order.
	RetrievedChunks []string

	// Prompt is the full instruction sent to the model.
	Prompt string

	// Model is the completion model name.
	Model string

	// Output is the raw model answer.
	Output string

	StartedAt time.Time
	EndedAt   time.Time
}

// NumChunks returns the number of retrieved chunks.
func (t TraceRecord) NumChunks() int {
	return len(t.RetrievedChunks)
}

// Trace and generation names.
const (
	TraceNameChat     = "chat_trace"
	GenerationNameRAG = "rag_generation"
)
