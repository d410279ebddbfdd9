// Package qdrant provides a vector index backed by Qdrant over gRPC.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// Default connection values. 6334 is the Qdrant gRPC port.
const (
	DefaultHost = "localhost"
	DefaultPort = 6334

	// DefaultBatchSize bounds points per upsert request.
	DefaultBatchSize = 500
)

// Config holds Qdrant connection settings.
type Config struct {
	Host string
	Port int

	// BatchSize bounds points per upsert request (default: 500).
	BatchSize int
}

// VectorIndex stores chunks as Qdrant points with cosine distance.
// Point payloads carry the chunk text, source, index and embedding model.
type VectorIndex struct {
	conn        *grpc.ClientConn
	collections qdrant.CollectionsClient
	points      qdrant.PointsClient
	batchSize   int
}

// New connects to Qdrant. The connection is established lazily on first call.
func New(cfg Config) (*VectorIndex, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant: connect %s: %w", domain.ErrConfiguration, addr, err)
	}
	logger.Debug("Qdrant client for %s", addr)

	idx := NewWithClients(qdrant.NewCollectionsClient(conn), qdrant.NewPointsClient(conn))
	idx.conn = conn
	if cfg.BatchSize > 0 {
		idx.batchSize = cfg.BatchSize
	}
	return idx, nil
}

// NewWithClients builds an index over existing gRPC clients.
func NewWithClients(collections qdrant.CollectionsClient, points qdrant.PointsClient) *VectorIndex {
	return &VectorIndex{collections: collections, points: points, batchSize: DefaultBatchSize}
}

// EnsureCollection creates the collection if absent and checks the dimension
// of an existing one.
func (v *VectorIndex) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}

	exists, err := v.exists(ctx, name)
	if err != nil {
		return err
	}

	if !exists {
		logger.Info("Creating Qdrant collection %q (dim=%d, cosine)", name, dimension)
		_, err := v.collections.Create(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: &qdrant.VectorsConfig{
				Config: &qdrant.VectorsConfig_Params{
					Params: &qdrant.VectorParams{
						Size:     uint64(dimension),
						Distance: qdrant.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("%w: create collection %s: %w", domain.ErrVectorIndex, name, err)
		}
		return nil
	}

	info, err := v.Info(ctx, name)
	if err != nil {
		return err
	}
	if info.Dimension != dimension {
		return fmt.Errorf("%w: collection %q has dimension %d, embeddings have %d",
			domain.ErrDimensionMismatch, name, info.Dimension, dimension)
	}
	return nil
}

func (v *VectorIndex) exists(ctx context.Context, name string) (bool, error) {
	names, err := v.Collections(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// Upsert writes points in batches of batchSize and waits for each batch to
// be indexed. Batches written before a failure stay committed.
func (v *VectorIndex) Upsert(ctx context.Context, name string, points []domain.IndexedPoint) error {
	for start := 0; start < len(points); start += v.batchSize {
		end := min(start+v.batchSize, len(points))

		structs := make([]*qdrant.PointStruct, 0, end-start)
		for _, p := range points[start:end] {
			structs = append(structs, toPointStruct(p))
		}

		wait := true
		_, err := v.points.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Wait:           &wait,
			Points:         structs,
		})
		if err != nil {
			return wrap(err, fmt.Sprintf("upsert points %d-%d", start, end), name)
		}
	}
	return nil
}

// Query searches for the nearest points. Qdrant cosine scores are already
// similarities, higher is better.
func (v *VectorIndex) Query(
	ctx context.Context, name string, vector []float32, topK int, filter domain.QueryFilter,
) (domain.RetrievalResult, error) {
	resp, err := v.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: name,
		Vector:         vector,
		Limit:          uint64(topK),
		Filter:         toFilter(filter),
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, wrap(err, "search", name)
	}

	results := make(domain.RetrievalResult, 0, len(resp.GetResult()))
	for _, sp := range resp.GetResult() {
		chunk := fromPayload(sp.GetPayload())
		chunk.ID = sp.GetId().GetUuid()
		results = append(results, domain.ScoredChunk{
			Score: float64(sp.GetScore()),
			Chunk: chunk,
		})
	}
	return results, nil
}

// Collections lists collection names.
func (v *VectorIndex) Collections(ctx context.Context) ([]string, error) {
	resp, err := v.collections.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return nil, fmt.Errorf("%w: list collections: %w", domain.ErrVectorIndex, err)
	}
	names := make([]string, 0, len(resp.GetCollections()))
	for _, c := range resp.GetCollections() {
		names = append(names, c.GetName())
	}
	return names, nil
}

// Info describes a collection.
func (v *VectorIndex) Info(ctx context.Context, name string) (*domain.CollectionInfo, error) {
	resp, err := v.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: name})
	if err != nil {
		return nil, wrap(err, "collection info", name)
	}
	result := resp.GetResult()
	return &domain.CollectionInfo{
		Name:      name,
		Dimension: int(result.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()),
		Points:    int64(result.GetPointsCount()),
	}, nil
}

// DeleteCollection removes a collection. Deleting a missing collection succeeds.
func (v *VectorIndex) DeleteCollection(ctx context.Context, name string) error {
	if _, err := v.collections.Delete(ctx, &qdrant.DeleteCollection{CollectionName: name}); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("%w: delete collection %s: %w", domain.ErrVectorIndex, name, err)
	}
	return nil
}

// Close closes the gRPC connection.
func (v *VectorIndex) Close() error {
	if v.conn == nil {
		return nil
	}
	return v.conn.Close()
}

func wrap(err error, op, name string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return fmt.Errorf("%w: %s %s: %w", domain.ErrVectorIndex, op, name, err)
}
