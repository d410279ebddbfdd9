package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestBatchEmbedder_PreservesOrderAcrossBatchSizes(t *testing.T) {
	texts := make([]string, 11)
	for i := range texts {
		texts[i] = fmt.Sprintf("text number %d", i)
	}

	reference, err := newVocabEmbedder().EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	for _, size := range []int{1, 3, 4, 11, 256} {
		t.Run(fmt.Sprintf("batch %d", size), func(t *testing.T) {
			inner := newVocabEmbedder()
			got, err := NewBatchEmbedder(inner, size).EmbedBatch(context.Background(), texts)
			require.NoError(t, err)
			assert.Equal(t, reference, got)

			wantCalls := (len(texts) + size - 1) / size
			assert.Equal(t, wantCalls, inner.callCount())
		})
	}
}

func TestBatchEmbedder_DefaultBatchSize(t *testing.T) {
	b := NewBatchEmbedder(newVocabEmbedder(), 0)
	assert.Equal(t, DefaultEmbedBatchSize, b.batchSize)
	assert.Equal(t, "vocab-embed", b.ModelName())
}

func TestBatchEmbedder_Errors(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		inner := newVocabEmbedder()
		inner.embedErr = domain.ErrRateLimited
		_, err := NewBatchEmbedder(inner, 2).EmbedBatch(context.Background(), []string{"a", "b", "c"})
		assert.ErrorIs(t, err, domain.ErrRateLimited)
	})

	t.Run("short response", func(t *testing.T) {
		inner := newVocabEmbedder()
		inner.short = true
		_, err := NewBatchEmbedder(inner, 2).EmbedBatch(context.Background(), []string{"a", "b"})
		assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	})
}

func TestBatchEmbedder_EmptyInput(t *testing.T) {
	inner := newVocabEmbedder()
	got, err := NewBatchEmbedder(inner, 2).EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, inner.callCount())
}
