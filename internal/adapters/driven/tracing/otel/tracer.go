// Package otel provides a Tracer that records answering runs as
// OpenTelemetry spans: a parent chat span with a child generation span.
package otel

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// InstrumentationName identifies spans produced by this package.
const InstrumentationName = "github.com/custodia-labs/ragchat"

// Span attribute keys.
const (
	AttrUserID          = attribute.Key("user.id")
	AttrSessionID       = attribute.Key("session.id")
	AttrQuery           = attribute.Key("rag.query")
	AttrRetrievedChunks = attribute.Key("rag.retrieved_chunks")
	AttrNumChunks       = attribute.Key("rag.num_chunks")
	AttrModel           = attribute.Key("gen_ai.request.model")
	AttrPrompt          = attribute.Key("gen_ai.prompt")
	AttrCompletion      = attribute.Key("gen_ai.completion")
)

// Ensure Tracer implements the interface.
var _ driven.Tracer = (*Tracer)(nil)

// Tracer emits spans through a TracerProvider.
type Tracer struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// New creates a Tracer that exports JSON spans to file, or stderr when
// file is empty.
func New(file string) (*Tracer, error) {
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("%w: opening trace file: %v", domain.ErrConfiguration, err)
		}
		w, closeFn = f, f.Close
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("creating span exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	t := NewWithProvider(provider)
	t.shutdown = func(ctx context.Context) error {
		err := provider.Shutdown(ctx)
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		return err
	}
	return t, nil
}

// NewWithProvider uses an existing TracerProvider. Close does not shut it down.
func NewWithProvider(provider trace.TracerProvider) *Tracer {
	return &Tracer{
		tracer:   provider.Tracer(InstrumentationName),
		shutdown: func(context.Context) error { return nil },
	}
}

// Trace records the run with its original start and end times.
func (t *Tracer) Trace(ctx context.Context, rec domain.TraceRecord) error {
	name := rec.Name
	if name == "" {
		name = domain.TraceNameChat
	}

	ctx, root := t.tracer.Start(ctx, name,
		trace.WithTimestamp(rec.StartedAt),
		trace.WithAttributes(
			AttrUserID.String(rec.UserID),
			AttrSessionID.String(rec.SessionID),
			AttrQuery.String(rec.Query),
			AttrRetrievedChunks.StringSlice(rec.RetrievedChunks),
			AttrNumChunks.Int(rec.NumChunks()),
		),
	)

	_, gen := t.tracer.Start(ctx, domain.GenerationNameRAG,
		trace.WithTimestamp(rec.StartedAt),
		trace.WithAttributes(
			AttrModel.String(rec.Model),
			AttrPrompt.String(rec.Prompt),
			AttrCompletion.String(rec.Output),
		),
	)
	gen.End(trace.WithTimestamp(rec.EndedAt))
	root.End(trace.WithTimestamp(rec.EndedAt))
	return nil
}

// Close flushes and shuts down a provider created by New.
func (t *Tracer) Close() error {
	return t.shutdown(context.Background())
}
