package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question or text to find similar chunks for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default from settings)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved chunk.
type SearchResultOutput struct {
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// AnswerInput is the input schema for the answer tool.
type AnswerInput struct {
	Query     string `json:"query" jsonschema:"the question to answer from the indexed documents"`
	UserID    string `json:"user_id,omitempty" jsonschema:"conversation owner (default from settings)"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation session (default from settings)"`
}

// AnswerOutput is the output schema for the answer tool.
type AnswerOutput struct {
	Answer    string `json:"answer"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Rebuild bool `json:"rebuild,omitempty" jsonschema:"clear the collection before ingesting"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Documents  int    `json:"documents"`
	Chunks     int    `json:"chunks"`
	Collection string `json:"collection"`
	Dimension  int    `json:"dimension"`
}

// SessionsInput is the input schema for the sessions tool.
type SessionsInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"conversation owner (default from settings)"`
}

// SessionsOutput is the output schema for the sessions tool.
type SessionsOutput struct {
	UserID   string   `json:"user_id"`
	Sessions []string `json:"sessions"`
}

// HistoryInput is the input schema for the history tool.
type HistoryInput struct {
	UserID    string `json:"user_id,omitempty" jsonschema:"conversation owner (default from settings)"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation session (default from settings)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of most recent messages (default 50)"`
}

// HistoryOutput is the output schema for the history tool.
type HistoryOutput struct {
	Messages []MessageOutput `json:"messages"`
	Count    int             `json:"count"`
}

// MessageOutput represents a single conversation message.
type MessageOutput struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Retrieve the document chunks most similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer",
		Description: "Answer a question using only the indexed documents, recording it in a conversation",
	}, s.handleAnswer)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sessions",
		Description: "List the conversation sessions of a user",
	}, s.handleSessions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "history",
		Description: "Show the most recent messages of a conversation session",
	}, s.handleHistory)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Chunk, embed and index the source documents",
		}, s.handleIngest)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Search.Search(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i, hit := range results {
		output.Results[i] = SearchResultOutput{
			Source:     hit.Chunk.Source,
			ChunkIndex: hit.Chunk.Index,
			Score:      hit.Score,
			Text:       hit.Chunk.Text,
		}
	}

	return nil, output, nil
}

// handleAnswer handles the answer tool invocation.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	userID := s.ports.user(input.UserID)
	sessionID := s.ports.session(input.SessionID)

	answer, err := s.ports.Chat.Send(ctx, userID, sessionID, input.Query)
	if err != nil {
		return nil, AnswerOutput{}, err
	}

	return nil, AnswerOutput{Answer: answer, UserID: userID, SessionID: sessionID}, nil
}

// handleSessions handles the sessions tool invocation.
func (s *Server) handleSessions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionsInput,
) (*mcp.CallToolResult, SessionsOutput, error) {
	userID := s.ports.user(input.UserID)

	sessions, err := s.ports.Chat.Sessions(ctx, userID)
	if err != nil {
		return nil, SessionsOutput{}, err
	}
	if sessions == nil {
		sessions = []string{}
	}

	return nil, SessionsOutput{UserID: userID, Sessions: sessions}, nil
}

// handleHistory handles the history tool invocation.
func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}

	msgs, err := s.ports.Chat.History(ctx, s.ports.user(input.UserID), s.ports.session(input.SessionID), limit)
	if err != nil {
		return nil, HistoryOutput{}, err
	}

	output := HistoryOutput{
		Messages: make([]MessageOutput, len(msgs)),
		Count:    len(msgs),
	}
	for i, m := range msgs {
		output.Messages[i] = MessageOutput{
			Role:      m.Role.String(),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	var (
		result *domain.IngestResult
		err    error
	)
	switch {
	case input.Rebuild && s.ports.Index != nil:
		result, err = s.ports.Index.Rebuild(ctx)
	case input.Rebuild:
		return nil, IngestOutput{}, ErrIngestUnavailable
	case s.ports.Ingest != nil:
		result, err = s.ports.Ingest.Ingest(ctx)
	default:
		return nil, IngestOutput{}, ErrIngestUnavailable
	}
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		Documents:  result.Documents,
		Chunks:     result.Chunks,
		Collection: result.Collection,
		Dimension:  result.Dimension,
	}, nil
}
