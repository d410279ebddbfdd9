package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			results: domain.RetrievalResult{
				{
					Score: 0.95,
					Chunk: domain.Chunk{Source: "sky.txt", Index: 2, Text: "The sky is blue."},
				},
			},
		}
		ports := validPorts()
		ports.Search = mockSearch
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "sky", TopK: 3})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "sky.txt", output.Results[0].Source)
		assert.Equal(t, 2, output.Results[0].ChunkIndex)
		assert.Equal(t, 0.95, output.Results[0].Score)
		assert.Equal(t, "The sky is blue.", output.Results[0].Text)
		assert.Equal(t, "sky", mockSearch.gotQuery)
		assert.Equal(t, 3, mockSearch.gotTopK)
	})

	t.Run("zero top_k is passed through", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		ports := validPorts()
		ports.Search = mockSearch
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, 0, mockSearch.gotTopK)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		ports := validPorts()
		ports.Search = &mockSearchService{err: errors.New("search failed")}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("uses default identifiers", func(t *testing.T) {
		chat := &mockChatService{answer: "Blue."}
		ports := validPorts()
		ports.Chat = chat
		ports.DefaultUser = "alice"
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleAnswer(ctx, nil, AnswerInput{Query: "What colour is the sky?"})

		require.NoError(t, err)
		assert.Equal(t, "Blue.", output.Answer)
		assert.Equal(t, "alice", output.UserID)
		assert.Equal(t, "session-1", output.SessionID)
		assert.Equal(t, "What colour is the sky?", chat.gotQuery)
	})

	t.Run("explicit identifiers", func(t *testing.T) {
		chat := &mockChatService{answer: "ok"}
		ports := validPorts()
		ports.Chat = chat
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAnswer(ctx, nil, AnswerInput{Query: "q", UserID: "u", SessionID: "s"})

		require.NoError(t, err)
		assert.Equal(t, "u", chat.gotUser)
		assert.Equal(t, "s", chat.gotSession)
	})

	t.Run("propagates failure", func(t *testing.T) {
		ports := validPorts()
		ports.Chat = &mockChatService{err: domain.ErrCompletionService}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAnswer(ctx, nil, AnswerInput{Query: "q"})

		assert.ErrorIs(t, err, domain.ErrCompletionService)
	})
}

func TestServer_handleSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("lists sessions", func(t *testing.T) {
		ports := validPorts()
		ports.Chat = &mockChatService{sessions: []string{"s1", "s2"}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleSessions(ctx, nil, SessionsInput{UserID: "bob"})

		require.NoError(t, err)
		assert.Equal(t, "bob", output.UserID)
		assert.Equal(t, []string{"s1", "s2"}, output.Sessions)
	})

	t.Run("no sessions is an empty list", func(t *testing.T) {
		server, err := NewServer(validPorts())
		require.NoError(t, err)

		_, output, err := server.handleSessions(ctx, nil, SessionsInput{})

		require.NoError(t, err)
		assert.NotNil(t, output.Sessions)
		assert.Empty(t, output.Sessions)
	})
}

func TestServer_handleHistory(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("returns messages", func(t *testing.T) {
		chat := &mockChatService{messages: []domain.Message{
			{Role: domain.RoleUser, Content: "hi", CreatedAt: at},
			{Role: domain.RoleAssistant, Content: "hello", CreatedAt: at.Add(time.Second)},
		}}
		ports := validPorts()
		ports.Chat = chat
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleHistory(ctx, nil, HistoryInput{Limit: 10})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "user", output.Messages[0].Role)
		assert.Equal(t, "hello", output.Messages[1].Content)
		assert.Equal(t, at, output.Messages[0].CreatedAt)
		assert.Equal(t, 10, chat.gotLimit)
	})

	t.Run("default limit", func(t *testing.T) {
		chat := &mockChatService{}
		ports := validPorts()
		ports.Chat = chat
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleHistory(ctx, nil, HistoryInput{})

		require.NoError(t, err)
		assert.Equal(t, domain.DefaultHistoryLimit, chat.gotLimit)
	})

	t.Run("returns error", func(t *testing.T) {
		ports := validPorts()
		ports.Chat = &mockChatService{err: domain.ErrConversationStore}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleHistory(ctx, nil, HistoryInput{})

		assert.ErrorIs(t, err, domain.ErrConversationStore)
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()
	result := &domain.IngestResult{Documents: 2, Chunks: 4, Collection: "documents", Dimension: 8}

	t.Run("ingests", func(t *testing.T) {
		ingest := &mockIngestService{result: result}
		ports := validPorts()
		ports.Ingest = ingest
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{})

		require.NoError(t, err)
		assert.Equal(t, 1, ingest.calls)
		assert.Equal(t, IngestOutput{Documents: 2, Chunks: 4, Collection: "documents", Dimension: 8}, output)
	})

	t.Run("rebuild uses the index service", func(t *testing.T) {
		ingest := &mockIngestService{result: result}
		index := &mockIndexService{result: result}
		ports := validPorts()
		ports.Ingest = ingest
		ports.Index = index
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Rebuild: true})

		require.NoError(t, err)
		assert.Equal(t, 1, index.rebuilds)
		assert.Equal(t, 0, ingest.calls)
	})

	t.Run("rebuild without index service", func(t *testing.T) {
		ports := validPorts()
		ports.Ingest = &mockIngestService{result: result}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Rebuild: true})

		assert.ErrorIs(t, err, ErrIngestUnavailable)
	})

	t.Run("no ingest service", func(t *testing.T) {
		server, err := NewServer(validPorts())
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{})

		assert.ErrorIs(t, err, ErrIngestUnavailable)
	})

	t.Run("propagates failure", func(t *testing.T) {
		ports := validPorts()
		ports.Ingest = &mockIngestService{err: domain.ErrEmbeddingService}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{})

		assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	})
}
