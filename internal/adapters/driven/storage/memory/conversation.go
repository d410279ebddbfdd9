package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
// Messages are kept in append order, which is also CreatedAt order.
type ConversationStore struct {
	mu       sync.RWMutex
	messages []domain.Message
	now      func() time.Time
}

// NewConversationStore creates an empty in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Append stores a message, assigning ID and CreatedAt when empty.
func (s *ConversationStore) Append(_ context.Context, msg *domain.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	s.messages = append(s.messages, *msg)
	return nil
}

// ListSessions returns the user's session IDs in first-seen order.
func (s *ConversationStore) ListSessions(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	sessions := []string{}
	for _, m := range s.messages {
		if m.UserID != userID || seen[m.SessionID] {
			continue
		}
		seen[m.SessionID] = true
		sessions = append(sessions, m.SessionID)
	}
	return sessions, nil
}

// ListMessages returns the latest limit messages of a session, oldest first.
func (s *ConversationStore) ListMessages(_ context.Context, userID, sessionID string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := []domain.Message{}
	for _, m := range s.messages {
		if m.UserID != userID || m.SessionID != sessionID {
			continue
		}
		msgs = append(msgs, m)
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// Close is a no-op.
func (s *ConversationStore) Close() error {
	return nil
}
