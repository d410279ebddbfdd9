package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/services"
)

// mockIngestService implements driving.IngestService.
type mockIngestService struct {
	IngestFunc func(ctx context.Context) (*domain.IngestResult, error)
	calls      int
}

func (m *mockIngestService) Ingest(ctx context.Context) (*domain.IngestResult, error) {
	m.calls++
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx)
	}
	return &domain.IngestResult{Documents: 2, Chunks: 5, Collection: "documents", Dimension: 3}, nil
}

// mockIndexService implements driving.IndexService.
type mockIndexService struct {
	StatusFunc   func(ctx context.Context) (*domain.IndexStatus, error)
	ClearFunc    func(ctx context.Context) error
	RebuildFunc  func(ctx context.Context) (*domain.IngestResult, error)
	clearCalls   int
	rebuildCalls int
}

func (m *mockIndexService) Status(ctx context.Context) (*domain.IndexStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	return &domain.IndexStatus{
		Collections: []string{"documents"},
		Active:      &domain.CollectionInfo{Name: "documents", Dimension: 3, Points: 5},
		Documents:   []string{"a.txt", "b.txt"},
	}, nil
}

func (m *mockIndexService) Clear(ctx context.Context) error {
	m.clearCalls++
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	return nil
}

func (m *mockIndexService) Rebuild(ctx context.Context) (*domain.IngestResult, error) {
	m.rebuildCalls++
	if m.RebuildFunc != nil {
		return m.RebuildFunc(ctx)
	}
	return &domain.IngestResult{Documents: 2, Chunks: 5, Collection: "documents", Dimension: 3}, nil
}

// mockSearchService implements driving.SearchService.
type mockSearchService struct {
	SearchFunc func(ctx context.Context, query string, topK int) (domain.RetrievalResult, error)
}

func (m *mockSearchService) Search(ctx context.Context, query string, topK int) (domain.RetrievalResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, topK)
	}
	return domain.RetrievalResult{
		{Score: 0.91, Chunk: domain.Chunk{Source: "sky.txt", Index: 0, Text: "The sky is blue."}},
	}, nil
}

// mockAnswerService implements driving.AnswerService.
type mockAnswerService struct {
	AnswerFunc func(ctx context.Context, req domain.AnswerRequest) (string, error)
}

func (m *mockAnswerService) Answer(ctx context.Context, req domain.AnswerRequest) (string, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, req)
	}
	return "stateless answer", nil
}

// mockChatService implements driving.ChatService.
type mockChatService struct {
	SendFunc     func(ctx context.Context, userID, sessionID, query string) (string, error)
	SessionsFunc func(ctx context.Context, userID string) ([]string, error)
	HistoryFunc  func(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error)
}

func (m *mockChatService) Send(ctx context.Context, userID, sessionID, query string) (string, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, userID, sessionID, query)
	}
	return "chat answer", nil
}

func (m *mockChatService) Sessions(ctx context.Context, userID string) ([]string, error) {
	if m.SessionsFunc != nil {
		return m.SessionsFunc(ctx, userID)
	}
	return []string{"session-1"}, nil
}

func (m *mockChatService) History(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, sessionID, limit)
	}
	return nil, nil
}

// mockWatcher implements Watcher with a caller-controlled channel.
type mockWatcher struct {
	ch  chan string
	err error
}

func (m *mockWatcher) Watch(_ context.Context) (<-chan string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ch, nil
}

// testServices exposes the mocks installed by setupTestServices.
type testServices struct {
	ingest  *mockIngestService
	index   *mockIndexService
	search  *mockSearchService
	answer  *mockAnswerService
	chat    *mockChatService
	watcher *mockWatcher
}

var current *testServices

// setupTestServices installs mock services and an in-memory config store.
// The returned cleanup restores the package state.
// seedValidSettings stores the minimum keys for the settings service to load.
func seedValidSettings(t *testing.T) {
	t.Helper()
	require.NoError(t, settingsService.Set("embedding.api_key", "sk-test"))
	require.NoError(t, settingsService.Set("llm.api_key", "sk-test"))
	require.NoError(t, settingsService.Set("conversation.backend", "memory"))
}

func setupTestServices() func() {
	settings := domain.DefaultSettings()
	settings.Embedding.APIKey = "sk-test"
	settings.LLM.APIKey = "sk-test"

	current = &testServices{
		ingest:  &mockIngestService{},
		index:   &mockIndexService{},
		search:  &mockSearchService{},
		answer:  &mockAnswerService{},
		chat:    &mockChatService{},
		watcher: &mockWatcher{ch: make(chan string)},
	}

	color.NoColor = true
	settingsService = services.NewSettingsService(memory.NewConfigStore(nil), nil)
	app = &App{
		Settings: &settings,
		Ingest:   current.ingest,
		Index:    current.index,
		Search:   current.search,
		Answer:   current.answer,
		Chat:     current.chat,
		Watcher:  current.watcher,
	}
	resetFlags(rootCmd)

	return func() {
		settingsService = nil
		app = nil
		current = nil
		resetFlags(rootCmd)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}
}

// resetFlags restores every flag in the tree to its default, since cobra
// keeps parsed values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(args []string, stdin string) (string, string, error) {
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	var in io.Reader = strings.NewReader(stdin)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}
