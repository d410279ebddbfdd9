// Package postprocessors builds text splitters by strategy name.
package postprocessors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// BuilderFunc creates a Splitter from chunking settings.
type BuilderFunc func(cfg domain.ChunkingSettings) (driven.Splitter, error)

// Registry maps strategy names to their builders.
// It allows the splitter to be selected from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new splitter registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a splitter builder to the registry.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates the splitter named by cfg.Strategy.
// An empty strategy selects DefaultStrategy.
func (r *Registry) Build(cfg domain.ChunkingSettings) (driven.Splitter, error) {
	name := cfg.Strategy
	if name == "" {
		name = DefaultStrategy
	}
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown chunking strategy %q (available: %s)",
			domain.ErrConfiguration, name, strings.Join(r.Names(), ", "))
	}
	return builder(cfg)
}

// Names returns all registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
