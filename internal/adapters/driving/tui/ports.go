// Package tui provides an interactive terminal chat interface for ragchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Chat runs conversation turns and reads stored history.
	Chat driving.ChatService

	// UserID owns the conversations. Defaults to domain.DefaultUserID.
	UserID string

	// SessionID is the session opened at start. Defaults to domain.DefaultSessionID.
	SessionID string
}

// NewPorts creates a new Ports aggregate for one user and session.
func NewPorts(chat driving.ChatService, userID, sessionID string) *Ports {
	return &Ports{
		Chat:      chat,
		UserID:    userID,
		SessionID: sessionID,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}

func (p *Ports) user() string {
	if p.UserID == "" {
		return domain.DefaultUserID
	}
	return p.UserID
}

func (p *Ports) session() string {
	if p.SessionID == "" {
		return domain.DefaultSessionID
	}
	return p.SessionID
}
