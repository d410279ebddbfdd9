// Package tracing selects the optional tracer from settings.
package tracing

import (
	"fmt"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/tracing/langfuse"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/tracing/otel"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// NewTracer creates the configured tracer. It returns nil when tracing is
// disabled.
func NewTracer(settings domain.TracingSettings) (driven.Tracer, error) {
	switch settings.Provider {
	case domain.TracingNone, "":
		return nil, nil

	case domain.TracingLangfuse:
		return langfuse.New(langfuse.Config{
			PublicKey: settings.Langfuse.PublicKey,
			SecretKey: settings.Langfuse.SecretKey,
			Host:      settings.Langfuse.Host,
		})

	case domain.TracingOTel:
		return otel.New(settings.OTel.File)

	default:
		return nil, fmt.Errorf("%w: unsupported tracing provider: %s", domain.ErrConfiguration, settings.Provider)
	}
}
