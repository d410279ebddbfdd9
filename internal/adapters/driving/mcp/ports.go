package mcp

import (
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search retrieves chunks for a query.
	Search driving.SearchService

	// Chat answers questions and reads conversation history.
	Chat driving.ChatService

	// Ingest loads the document source into the index. Optional.
	Ingest driving.IngestService

	// Index reports and rebuilds the vector index. Optional.
	Index driving.IndexService

	// DefaultUser is used when a tool call omits user_id.
	DefaultUser string

	// DefaultSession is used when a tool call omits session_id.
	DefaultSession string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}

func (p *Ports) user(id string) string {
	if id != "" {
		return id
	}
	if p.DefaultUser != "" {
		return p.DefaultUser
	}
	return domain.DefaultUserID
}

func (p *Ports) session(id string) string {
	if id != "" {
		return id
	}
	if p.DefaultSession != "" {
		return p.DefaultSession
	}
	return domain.DefaultSessionID
}
