package sessions

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

type mockChatService struct {
	SessionsFunc func(ctx context.Context, userID string) ([]string, error)
}

func (m *mockChatService) Send(_ context.Context, _, _, _ string) (string, error) {
	return "", nil
}

func (m *mockChatService) Sessions(ctx context.Context, userID string) ([]string, error) {
	if m.SessionsFunc != nil {
		return m.SessionsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockChatService) History(_ context.Context, _, _ string, _ int) ([]domain.Message, error) {
	return nil, nil
}

func loadedView(t *testing.T, ids ...string) *View {
	t.Helper()
	v := NewView(nil, nil, &mockChatService{
		SessionsFunc: func(context.Context, string) ([]string, error) { return ids, nil },
	}, "student1")
	v.SetDimensions(80, 24)
	msg := v.Init()()
	v, _ = v.Update(msg)
	return v
}

func TestView_Init_LoadsSessions(t *testing.T) {
	var gotUser string
	v := NewView(nil, nil, &mockChatService{
		SessionsFunc: func(_ context.Context, userID string) ([]string, error) {
			gotUser = userID
			return []string{"s1", "s2"}, nil
		},
	}, "student1")

	cmd := v.Init()
	assert.Contains(t, v.View(), "Loading sessions...")

	msg := cmd()
	loaded, ok := msg.(messages.SessionsLoaded)
	require.True(t, ok)
	assert.Equal(t, "student1", gotUser)

	v, _ = v.Update(loaded)
	assert.Equal(t, []string{"s1", "s2"}, v.Sessions())
	assert.Contains(t, v.View(), "s2")
}

func TestView_Init_Error(t *testing.T) {
	v := NewView(nil, nil, &mockChatService{
		SessionsFunc: func(context.Context, string) ([]string, error) { return nil, errors.New("store down") },
	}, "u")

	v, _ = v.Update(v.Init()())

	assert.EqualError(t, v.Err(), "store down")
	assert.Contains(t, v.View(), "store down")
}

func TestView_Init_NilService(t *testing.T) {
	v := NewView(nil, nil, nil, "u")

	msg := v.Init()().(messages.SessionsLoaded)

	assert.ErrorIs(t, msg.Err, ErrNoChatService)
}

func TestView_SelectSession(t *testing.T) {
	v := loadedView(t, "s1", "s2")

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.SessionSelected{SessionID: "s2"}, cmd())
}

func TestView_SelectOnEmptyList(t *testing.T) {
	v := loadedView(t)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_NewSession(t *testing.T) {
	orig := NewSessionID
	NewSessionID = func() string { return "session-new" }
	defer func() { NewSessionID = orig }()

	v := loadedView(t, "s1")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.SessionSelected{SessionID: "session-new"}, cmd())
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()

	assert.Regexp(t, `^session-[0-9a-f]{8}$`, a)
	assert.NotEqual(t, a, b)
}

func TestView_Back(t *testing.T) {
	v := loadedView(t, "s1")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewChat}, cmd())
}

func TestView_SetActive(t *testing.T) {
	v := loadedView(t, "s1", "s2", "s3")

	v.SetActive("s3")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, messages.SessionSelected{SessionID: "s3"}, cmd())
}

func TestView_WithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := NewView(nil, nil, nil, "u").WithContext(ctx)

	assert.Equal(t, ctx, v.ctx)
}
