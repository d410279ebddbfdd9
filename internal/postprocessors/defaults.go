package postprocessors

import (
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/postprocessors/chunker"
)

// DefaultStrategy is used when no strategy is configured.
const DefaultStrategy = "recursive"

// RegisterDefaults registers all built-in splitters with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("recursive", buildRecursive)
	r.Register("fixed", buildFixed)
}

// NewSplitter builds a splitter from settings using the built-in strategies.
func NewSplitter(cfg domain.ChunkingSettings) (driven.Splitter, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Build(cfg)
}

// Strategies returns the names of the built-in splitters, sorted.
func Strategies() []string {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Names()
}

func buildRecursive(cfg domain.ChunkingSettings) (driven.Splitter, error) {
	return chunker.NewRecursive(chunker.WithChunkSize(cfg.Size), chunker.WithOverlap(cfg.Overlap))
}

func buildFixed(cfg domain.ChunkingSettings) (driven.Splitter, error) {
	return chunker.NewFixed(chunker.WithChunkSize(cfg.Size), chunker.WithOverlap(cfg.Overlap))
}
