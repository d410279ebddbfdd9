package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

type collection struct {
	dim    int
	points map[string]domain.IndexedPoint
}

// VectorIndex is an in-memory implementation of driven.VectorIndex using
// exact cosine similarity.
type VectorIndex struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		collections: make(map[string]*collection),
	}
}

// EnsureCollection creates the collection if absent.
func (v *VectorIndex) EnsureCollection(_ context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if c, ok := v.collections[name]; ok {
		if c.dim != dimension {
			return fmt.Errorf("%w: collection %q has dimension %d, got %d",
				domain.ErrDimensionMismatch, name, c.dim, dimension)
		}
		return nil
	}

	v.collections[name] = &collection{
		dim:    dimension,
		points: make(map[string]domain.IndexedPoint),
	}
	return nil
}

// Upsert inserts or replaces points by ID.
// Points are validated before any is written.
func (v *VectorIndex) Upsert(_ context.Context, name string, points []domain.IndexedPoint) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	c, ok := v.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}

	for _, p := range points {
		if p.ID == "" {
			return fmt.Errorf("%w: point without id", domain.ErrInvalidInput)
		}
		if len(p.Vector) != c.dim {
			return fmt.Errorf("%w: point %s has dimension %d, collection %q expects %d",
				domain.ErrDimensionMismatch, p.ID, len(p.Vector), name, c.dim)
		}
	}

	for _, p := range points {
		p.Vector = append([]float32(nil), p.Vector...)
		p.Payload.ID = p.ID
		c.points[p.ID] = p
	}
	return nil
}

// Query returns the topK points with the highest cosine similarity.
// Equal scores are ordered by point ID.
func (v *VectorIndex) Query(
	_ context.Context, name string, vector []float32, topK int, filter domain.QueryFilter,
) (domain.RetrievalResult, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	c, ok := v.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if len(vector) != c.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, collection %q expects %d",
			domain.ErrDimensionMismatch, len(vector), name, c.dim)
	}

	results := make(domain.RetrievalResult, 0, len(c.points))
	for _, p := range c.points {
		if !filter.Matches(p.Payload) {
			continue
		}
		results = append(results, domain.ScoredChunk{
			Score: CosineSimilarity(vector, p.Vector),
			Chunk: p.Payload,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Collections lists collection names in sorted order.
func (v *VectorIndex) Collections(_ context.Context) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.collections))
	for name := range v.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Info describes a collection.
func (v *VectorIndex) Info(_ context.Context, name string) (*domain.CollectionInfo, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	c, ok := v.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return &domain.CollectionInfo{
		Name:      name,
		Dimension: c.dim,
		Points:    int64(len(c.points)),
	}, nil
}

// DeleteCollection removes a collection.
func (v *VectorIndex) DeleteCollection(_ context.Context, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.collections, name)
	return nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Zero vectors have similarity 0.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
