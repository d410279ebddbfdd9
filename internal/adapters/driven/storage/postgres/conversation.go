package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

const createMessagesTable = `
CREATE TABLE IF NOT EXISTS messages (
    seq        BIGSERIAL PRIMARY KEY,
    id         TEXT        NOT NULL UNIQUE,
    user_id    TEXT        NOT NULL,
    session_id TEXT        NOT NULL,
    role       TEXT        NOT NULL CHECK (role IN ('user', 'assistant')),
    content    TEXT        NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_user_session ON messages (user_id, session_id, seq);
`

// ConversationStore persists messages in a Postgres table.
type ConversationStore struct {
	pool  *pgxpool.Pool
	owned bool
	now   func() time.Time
}

// NewConversationStore connects to dsn and creates the messages table.
// The returned store owns the pool and closes it on Close.
func NewConversationStore(ctx context.Context, dsn string) (*ConversationStore, error) {
	pool, err := Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConversationStore, err)
	}
	s, err := NewConversationStoreWithPool(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewConversationStoreWithPool uses an existing pool, which stays open on Close.
func NewConversationStoreWithPool(ctx context.Context, pool *pgxpool.Pool) (*ConversationStore, error) {
	if _, err := pool.Exec(ctx, createMessagesTable); err != nil {
		return nil, fmt.Errorf("%w: creating messages table: %v", domain.ErrConversationStore, err)
	}
	return &ConversationStore{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Append stores a message, assigning ID and CreatedAt when empty.
func (s *ConversationStore) Append(ctx context.Context, msg *domain.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, user_id, session_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.UserID, msg.SessionID, string(msg.Role), msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: inserting message: %v", domain.ErrConversationStore, err)
	}
	return nil
}

// ListSessions returns the user's session IDs in first-seen order.
func (s *ConversationStore) ListSessions(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT session_id FROM messages
		 WHERE user_id = $1
		 GROUP BY session_id
		 ORDER BY MIN(seq)`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sessions: %v", domain.ErrConversationStore, err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning session: %v", domain.ErrConversationStore, err)
		}
		sessions = append(sessions, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sessions: %v", domain.ErrConversationStore, err)
	}
	return sessions, nil
}

// ListMessages returns the latest limit messages of a session, oldest first.
func (s *ConversationStore) ListMessages(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, session_id, role, content, created_at FROM (
		     SELECT seq, id, user_id, session_id, role, content, created_at
		     FROM messages
		     WHERE user_id = $1 AND session_id = $2
		     ORDER BY seq DESC
		     LIMIT $3
		 ) latest ORDER BY seq ASC`,
		userID, sessionID, limitArg(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying messages: %v", domain.ErrConversationStore, err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var (
			m    domain.Message
			role string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.SessionID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning message: %v", domain.ErrConversationStore, err)
		}
		m.Role = domain.Role(role)
		m.CreatedAt = m.CreatedAt.UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating messages: %v", domain.ErrConversationStore, err)
	}
	return msgs, nil
}

// Close releases the pool when the store opened it.
func (s *ConversationStore) Close() error {
	if s.owned {
		s.pool.Close()
	}
	return nil
}

// limitArg maps a non-positive limit to NULL, which Postgres treats as LIMIT ALL.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
