// Package storage selects the conversation store implementation from settings.
package storage

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// NewConversationStore creates the conversation store for the configured backend.
func NewConversationStore(ctx context.Context, settings *domain.Settings) (driven.ConversationStore, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings missing", domain.ErrConfiguration)
	}

	switch settings.Conversation.Backend {
	case domain.ConversationBackendMemory:
		return memory.NewConversationStore(), nil

	case domain.ConversationBackendSQLite:
		store, err := sqlite.NewStore(settings.Conversation.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConversationStore, err)
		}
		return store, nil

	case domain.ConversationBackendPostgres:
		return postgres.NewConversationStore(ctx, settings.Postgres.DSN())

	default:
		return nil, fmt.Errorf("%w: unsupported conversation backend: %s",
			domain.ErrConfiguration, settings.Conversation.Backend)
	}
}
