package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/postprocessors/chunker"
)

func TestChatService_Send(t *testing.T) {
	store := memory.NewConversationStore()
	answerer := &mockAnswerer{answer: "hello back"}
	svc := NewChatService(store, answerer, 0)
	assert.Equal(t, domain.DefaultHistoryLimit, svc.historyLimit)

	answer, err := svc.Send(context.Background(), "u1", "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello back", answer)

	require.Len(t, answerer.requests, 1)
	req := answerer.requests[0]
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, "s1", req.SessionID)
	assert.Equal(t, []domain.Turn{{Role: domain.RoleUser, Content: "hello"}}, req.History)

	msgs, err := store.ListMessages(context.Background(), "u1", "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "hello back", msgs[1].Content)
}

func TestChatService_Send_HistoryLimit(t *testing.T) {
	store := memory.NewConversationStore()
	answerer := &mockAnswerer{answer: "ok"}
	svc := NewChatService(store, answerer, 3)

	for _, q := range []string{"one", "two", "three"} {
		_, err := svc.Send(context.Background(), "u", "s", q)
		require.NoError(t, err)
	}

	last := answerer.requests[len(answerer.requests)-1]
	require.Len(t, last.History, 3)
	assert.Equal(t, domain.Turn{Role: domain.RoleUser, Content: "two"}, last.History[0])
	assert.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: "ok"}, last.History[1])
	assert.Equal(t, domain.Turn{Role: domain.RoleUser, Content: "three"}, last.History[2])
}

func TestChatService_Send_FailureStoresOnlyUserMessage(t *testing.T) {
	store := memory.NewConversationStore()
	svc := NewChatService(store, &mockAnswerer{answerErr: domain.ErrCompletionService}, 10)

	_, err := svc.Send(context.Background(), "u", "s", "question")
	assert.ErrorIs(t, err, domain.ErrCompletionService)

	msgs, err := store.ListMessages(context.Background(), "u", "s", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
}

func TestChatService_Send_InvalidInput(t *testing.T) {
	store := memory.NewConversationStore()
	answerer := &mockAnswerer{}
	svc := NewChatService(store, answerer, 10)

	_, err := svc.Send(context.Background(), "u", "s", "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Send(context.Background(), "", "s", "question")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, answerer.requests)
}

func TestChatService_SessionsAndHistory(t *testing.T) {
	store := memory.NewConversationStore()
	svc := NewChatService(store, &mockAnswerer{answer: "a"}, 2)

	for _, s := range []string{"beta", "alpha", "beta"} {
		_, err := svc.Send(context.Background(), "u", s, "q")
		require.NoError(t, err)
	}

	sessions, err := svc.Sessions(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "alpha"}, sessions)

	history, err := svc.History(context.Background(), "u", "beta", 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	history, err = svc.History(context.Background(), "u", "beta", 10)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestChatPipeline_EndToEnd(t *testing.T) {
	ctx := context.Background()
	emb := newVocabEmbedder()
	idx := memory.NewVectorIndex()
	splitter, err := chunker.NewRecursive(chunker.WithChunkSize(20), chunker.WithOverlap(5))
	require.NoError(t, err)

	src := &mockSource{docs: []domain.SourceDocument{{Name: "facts.txt", Text: "The sky is blue. Water is wet."}}}
	ingest := NewIngestService(src, splitter, emb, idx, IngestConfig{Collection: "documents"})
	result, err := ingest.Ingest(ctx)
	require.NoError(t, err)
	assert.Positive(t, result.Chunks)

	llm := &mockCompletion{answer: func(prompt string) string {
		if strings.Contains(prompt, "The sky is blue") {
			return "The sky is blue."
		}
		return FallbackPhrase
	}}
	tracer := &mockTracer{}
	answerer := NewAnswerService(NewRetriever(emb, idx, "documents", 5), llm, tracer, 5)
	store := memory.NewConversationStore()
	chat := NewChatService(store, answerer, domain.DefaultHistoryLimit)

	answer, err := chat.Send(ctx, domain.DefaultUserID, domain.DefaultSessionID, "What color is the sky?")
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", answer)

	msgs, err := store.ListMessages(ctx, domain.DefaultUserID, domain.DefaultSessionID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "What color is the sky?", msgs[0].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "The sky is blue.", msgs[1].Content)

	require.Len(t, tracer.records, 1)
	assert.Equal(t, result.Chunks, tracer.records[0].NumChunks())
	assert.Contains(t, llm.prompts[0], "USER: What color is the sky?")
}
