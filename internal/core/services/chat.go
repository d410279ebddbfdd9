package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService persists a conversation turn around the answering pipeline.
type ChatService struct {
	store        driven.ConversationStore
	answerer     driving.AnswerService
	historyLimit int
}

// NewChatService creates a chat service.
// A historyLimit <= 0 uses domain.DefaultHistoryLimit.
func NewChatService(store driven.ConversationStore, answerer driving.AnswerService, historyLimit int) *ChatService {
	if historyLimit <= 0 {
		historyLimit = domain.DefaultHistoryLimit
	}
	return &ChatService{
		store:        store,
		answerer:     answerer,
		historyLimit: historyLimit,
	}
}

// Send appends the user message, answers it with the session history
// (which includes the new message) and appends the assistant reply.
// When answering fails no assistant message is stored.
func (s *ChatService) Send(ctx context.Context, userID, sessionID, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	userMsg := &domain.Message{
		UserID:    userID,
		SessionID: sessionID,
		Role:      domain.RoleUser,
		Content:   query,
	}
	if err := s.store.Append(ctx, userMsg); err != nil {
		return "", fmt.Errorf("save user message: %w", err)
	}

	history, err := s.store.ListMessages(ctx, userID, sessionID, s.historyLimit)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	logger.Debug("Session %s/%s: %d history messages", userID, sessionID, len(history))

	answer, err := s.answerer.Answer(ctx, domain.AnswerRequest{
		UserID:    userID,
		SessionID: sessionID,
		Query:     query,
		History:   domain.Turns(history),
	})
	if err != nil {
		return "", err
	}

	if err := s.store.Append(ctx, &domain.Message{
		UserID:    userID,
		SessionID: sessionID,
		Role:      domain.RoleAssistant,
		Content:   answer,
	}); err != nil {
		return "", fmt.Errorf("save assistant message: %w", err)
	}

	return answer, nil
}

// Sessions lists a user's sessions in first-seen order.
func (s *ChatService) Sessions(ctx context.Context, userID string) ([]string, error) {
	sessions, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// History returns up to limit messages of a session, oldest first.
// A limit <= 0 uses the configured history limit.
func (s *ChatService) History(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	msgs, err := s.store.ListMessages(ctx, userID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}
