package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ConversationStore persists chat messages per user and session.
// Messages are append-only and each append is atomic.
type ConversationStore interface {
	// Append stores a message. The store assigns ID and CreatedAt when empty.
	Append(ctx context.Context, msg *domain.Message) error

	// ListSessions returns the user's session IDs in first-seen order.
	ListSessions(ctx context.Context, userID string) ([]string, error)

	// ListMessages returns up to limit messages of one session in
	// chronological order. When a session holds more than limit messages the
	// most recent ones are returned. A limit <= 0 returns all messages.
	ListMessages(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error)

	// Close releases resources.
	Close() error
}
