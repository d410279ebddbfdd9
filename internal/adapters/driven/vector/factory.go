// Package vector selects the vector index implementation from settings.
package vector

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/vector/pgvector"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/vector/redis"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// NewIndex creates the vector index for the configured backend.
// The Postgres connection settings are shared with the conversation store.
func NewIndex(ctx context.Context, settings *domain.Settings) (driven.VectorIndex, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings missing", domain.ErrConfiguration)
	}

	vs := settings.VectorIndex
	switch vs.Backend {
	case domain.VectorBackendMemory:
		return memory.NewVectorIndex(), nil

	case domain.VectorBackendQdrant:
		return qdrant.New(qdrant.Config{Host: vs.Qdrant.Host, Port: vs.Qdrant.Port, BatchSize: vs.UpsertBatchSize})

	case domain.VectorBackendPgvector:
		return pgvector.New(ctx, settings.Postgres.DSN())

	case domain.VectorBackendRedis:
		return redis.New(ctx, redis.Config{
			Addr:     vs.Redis.Addr,
			Password: vs.Redis.Password,
			DB:       vs.Redis.DB,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported vector backend: %s", domain.ErrConfiguration, vs.Backend)
	}
}
