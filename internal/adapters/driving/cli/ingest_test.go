package cli

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestIngestCmd_Ingests(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute([]string{"ingest"}, "")

	require.NoError(t, err)
	assert.Equal(t, 1, current.ingest.calls)
	assert.Zero(t, current.index.rebuildCalls)
	assert.Contains(t, out, `Indexed 5 chunks from 2 documents into "documents" (dimension 3).`)
}

func TestIngestCmd_Rebuild(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute([]string{"ingest", "--rebuild"}, "")

	require.NoError(t, err)
	assert.Zero(t, current.ingest.calls)
	assert.Equal(t, 1, current.index.rebuildCalls)
}

func TestIngestCmd_EmptyCorpus(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	current.ingest.IngestFunc = func(context.Context) (*domain.IngestResult, error) {
		return &domain.IngestResult{Collection: "documents"}, nil
	}

	out, _, err := execute([]string{"ingest"}, "")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found in data")
}

func TestIngestCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	current.ingest.IngestFunc = func(context.Context) (*domain.IngestResult, error) {
		return nil, domain.ErrEmbeddingService
	}

	_, _, err := execute([]string{"ingest"}, "")

	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Contains(t, err.Error(), "ingestion failed")
}

func TestIngestCmd_RejectsArgs(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute([]string{"ingest", "extra"}, "")

	assert.Error(t, err)
}

// syncBuffer is a goroutine-safe writer for watch output.
type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

func TestWatchAndRebuild_DebouncesChanges(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ingestDebounce = 20 * time.Millisecond
	rebuilt := make(chan struct{}, 4)
	current.index.RebuildFunc = func(context.Context) (*domain.IngestResult, error) {
		rebuilt <- struct{}{}
		return &domain.IngestResult{Documents: 1, Chunks: 1, Collection: "documents", Dimension: 3}, nil
	}

	out := &syncBuffer{}
	rootCmd.SetOut(out)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchAndRebuild(ctx, rootCmd, app) }()

	current.watcher.ch <- "a.txt"
	current.watcher.ch <- "b.txt"

	select {
	case <-rebuilt:
	case <-time.After(2 * time.Second):
		t.Fatal("rebuild not triggered")
	}
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 1, current.index.rebuildCalls)
	assert.Contains(t, out.String(), "Changed: a.txt, b.txt")
}

func TestWatchAndRebuild_RebuildErrorKeepsWatching(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ingestDebounce = time.Millisecond
	calls := make(chan struct{}, 4)
	current.index.RebuildFunc = func(context.Context) (*domain.IngestResult, error) {
		calls <- struct{}{}
		return nil, errors.New("qdrant down")
	}

	errOut := &syncBuffer{}
	rootCmd.SetOut(&syncBuffer{})
	rootCmd.SetErr(errOut)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchAndRebuild(ctx, rootCmd, app) }()

	for i := 0; i < 2; i++ {
		current.watcher.ch <- "a.txt"
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("rebuild not triggered")
		}
	}
	cancel()
	require.NoError(t, <-done)

	assert.Contains(t, errOut.String(), "qdrant down")
}

func TestWatchAndRebuild_ClosedChannel(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	close(current.watcher.ch)

	err := watchAndRebuild(context.Background(), rootCmd, app)

	assert.NoError(t, err)
}

func TestWatchAndRebuild_WatchError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	current.watcher.err = errors.New("too many open files")

	err := watchAndRebuild(context.Background(), rootCmd, app)

	assert.ErrorContains(t, err, "too many open files")
}

func TestWatchAndRebuild_NoWatcher(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	app.Watcher = nil

	err := watchAndRebuild(context.Background(), rootCmd, app)

	assert.Error(t, err)
}

func TestJoinNames(t *testing.T) {
	got := joinNames(map[string]struct{}{"b.txt": {}, "a.txt": {}})
	assert.Equal(t, "a.txt, b.txt", got)
}
