package mcp

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  domain.RetrievalResult
	err      error
	gotQuery string
	gotTopK  int
}

func (m *mockSearchService) Search(_ context.Context, query string, topK int) (domain.RetrievalResult, error) {
	m.gotQuery = query
	m.gotTopK = topK
	return m.results, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer   string
	sessions []string
	messages []domain.Message
	err      error

	gotUser    string
	gotSession string
	gotQuery   string
	gotLimit   int
}

func (m *mockChatService) Send(_ context.Context, userID, sessionID, query string) (string, error) {
	m.gotUser, m.gotSession, m.gotQuery = userID, sessionID, query
	return m.answer, m.err
}

func (m *mockChatService) Sessions(_ context.Context, userID string) ([]string, error) {
	m.gotUser = userID
	return m.sessions, m.err
}

func (m *mockChatService) History(_ context.Context, userID, sessionID string, limit int) ([]domain.Message, error) {
	m.gotUser, m.gotSession, m.gotLimit = userID, sessionID, limit
	return m.messages, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *domain.IngestResult
	err    error
	calls  int
}

func (m *mockIngestService) Ingest(_ context.Context) (*domain.IngestResult, error) {
	m.calls++
	return m.result, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	status   *domain.IndexStatus
	result   *domain.IngestResult
	err      error
	rebuilds int
}

func (m *mockIndexService) Status(_ context.Context) (*domain.IndexStatus, error) {
	return m.status, m.err
}

func (m *mockIndexService) Clear(_ context.Context) error {
	return m.err
}

func (m *mockIndexService) Rebuild(_ context.Context) (*domain.IngestResult, error) {
	m.rebuilds++
	return m.result, m.err
}

func validPorts() *Ports {
	return &Ports{
		Search: &mockSearchService{},
		Chat:   &mockChatService{},
	}
}
