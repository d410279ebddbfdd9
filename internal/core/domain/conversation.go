package domain

import (
	"strings"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// Message is one persisted conversation turn.
// Messages are append-only and ordered by CreatedAt.
type Message struct {
	// ID is assigned by the conversation store.
	ID string

	// UserID owns the conversation.
	UserID string

	// SessionID groups messages into a conversation.
	SessionID string

	// Role is user or assistant.
	Role Role

	// Content is the message text.
	Content string

	// CreatedAt is when the message was appended (UTC).
	CreatedAt time.Time
}

// Turn is a role-tagged history entry fed to the prompt builder.
type Turn struct {
	Role    Role
	Content string
}

// Turns converts stored messages into prompt history.
func Turns(msgs []Message) []Turn {
	turns := make([]Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = Turn{Role: m.Role, Content: m.Content}
	}
	return turns
}

// Validate checks the identifying fields of a message.
func (m Message) Validate() error {
	switch {
	case strings.TrimSpace(m.UserID) == "":
		return ErrInvalidInput
	case strings.TrimSpace(m.SessionID) == "":
		return ErrInvalidInput
	case !m.Role.IsValid():
		return ErrInvalidInput
	}
	return nil
}

// Default identifiers used when callers do not provide one.
const (
	DefaultUserID    = "student1"
	DefaultSessionID = "session-1"
	// DefaultHistoryLimit bounds how many messages are replayed into a prompt.
	DefaultHistoryLimit = 50
)

// AnswerRequest is the input to the answering pipeline.
type AnswerRequest struct {
	UserID    string
	SessionID string

	// Query is the current question.
	Query string

	// History is the prior conversation in chronological order.
	History []Turn
}
