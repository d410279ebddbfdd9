package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Tracer records answering runs to an observability backend.
// This is an optional service - when nil, tracing is disabled.
// Callers treat every error as non-fatal.
type Tracer interface {
	Trace(ctx context.Context, rec domain.TraceRecord) error

	// Close flushes pending events.
	Close() error
}
