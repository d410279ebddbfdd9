// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the conversation view.
	ViewChat ViewType = iota
	// ViewSessions lists the user's sessions.
	ViewSessions
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewSessions:
		return "sessions"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// QuestionSubmitted is sent when the user submits a question.
type QuestionSubmitted struct {
	Query string
}

// AnswerReceived carries the outcome of a chat turn.
type AnswerReceived struct {
	SessionID string
	Query     string
	Answer    string
	Err       error
}

// HistoryLoaded carries the stored messages of a session.
type HistoryLoaded struct {
	SessionID string
	Messages  []domain.Message
	Err       error
}

// SessionsLoaded carries the user's session IDs in first-seen order.
type SessionsLoaded struct {
	Sessions []string
	Err      error
}

// SessionSelected switches the chat view to another session.
type SessionSelected struct {
	SessionID string
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
