// Package mcp provides an MCP (Model Context Protocol) server adapter for ragchat.
// It lets AI assistants search the indexed documents, ask grounded questions
// and browse conversation history.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")

// ErrIngestUnavailable is returned by the ingest tool when no ingestion
// service is wired.
var ErrIngestUnavailable = errors.New("mcp: ingestion is not available")
