package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// MockChatService implements driving.ChatService for testing.
type MockChatService struct {
	SendFunc     func(ctx context.Context, userID, sessionID, query string) (string, error)
	SessionsFunc func(ctx context.Context, userID string) ([]string, error)
	HistoryFunc  func(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error)
}

var _ driving.ChatService = (*MockChatService)(nil)

func (m *MockChatService) Send(ctx context.Context, userID, sessionID, query string) (string, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, userID, sessionID, query)
	}
	return "answer", nil
}

func (m *MockChatService) Sessions(ctx context.Context, userID string) ([]string, error) {
	if m.SessionsFunc != nil {
		return m.SessionsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockChatService) History(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, sessionID, limit)
	}
	return nil, nil
}

func TestNewPorts(t *testing.T) {
	chat := &MockChatService{}

	p := NewPorts(chat, "u", "s")

	assert.Equal(t, chat, p.Chat)
	assert.Equal(t, "u", p.user())
	assert.Equal(t, "s", p.session())
}

func TestPorts_Defaults(t *testing.T) {
	p := &Ports{Chat: &MockChatService{}}

	assert.Equal(t, domain.DefaultUserID, p.user())
	assert.Equal(t, domain.DefaultSessionID, p.session())
}

func TestPorts_Validate(t *testing.T) {
	assert.NoError(t, (&Ports{Chat: &MockChatService{}}).Validate())
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingChatService)

	var nilPorts *Ports
	assert.ErrorIs(t, nilPorts.Validate(), ErrInvalidPorts)
}
