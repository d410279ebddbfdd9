package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestNewIndex_Memory(t *testing.T) {
	s := domain.DefaultSettings()
	s.VectorIndex.Backend = domain.VectorBackendMemory

	idx, err := NewIndex(context.Background(), &s)

	require.NoError(t, err)
	assert.IsType(t, &memory.VectorIndex{}, idx)
}

func TestNewIndex_Qdrant(t *testing.T) {
	s := domain.DefaultSettings()

	// The gRPC client connects lazily, so no server is needed here.
	idx, err := NewIndex(context.Background(), &s)

	require.NoError(t, err)
	assert.IsType(t, &qdrant.VectorIndex{}, idx)
	assert.NoError(t, idx.Close())
}

func TestNewIndex_Unknown(t *testing.T) {
	s := domain.DefaultSettings()
	s.VectorIndex.Backend = "faiss"

	_, err := NewIndex(context.Background(), &s)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewIndex_NilSettings(t *testing.T) {
	_, err := NewIndex(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
