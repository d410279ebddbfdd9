package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ChatService runs persisted, multi-session conversations.
type ChatService interface {
	// Send stores the user message, answers it using the session history
	// and stores the assistant reply.
	Send(ctx context.Context, userID, sessionID, query string) (string, error)

	// Sessions lists a user's sessions in first-seen order.
	Sessions(ctx context.Context, userID string) ([]string, error)

	// History returns up to limit messages of a session, oldest first.
	History(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error)
}
