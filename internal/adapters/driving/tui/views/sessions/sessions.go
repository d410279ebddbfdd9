// Package sessions provides the session picker view for the TUI.
package sessions

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// ErrNoChatService indicates that no chat service was provided.
var ErrNoChatService = errors.New("chat service is required")

// NewSessionID generates the ID for a fresh session.
var NewSessionID = func() string {
	return "session-" + uuid.NewString()[:8]
}

// View lists the user's sessions and lets them switch or start a new one.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	list      *list.SessionList
	statusbar *status.Bar

	chat driving.ChatService
	ctx  context.Context

	userID  string
	active  string
	loading bool

	width  int
	height int
	err    error
}

// NewView creates a new sessions view.
func NewView(s *styles.Styles, km *keymap.KeyMap, chat driving.ChatService, userID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetState(status.StateSessions)

	return &View{
		styles:    s,
		keymap:    km,
		list:      list.NewSessionList(s),
		statusbar: bar,
		chat:      chat,
		ctx:       context.Background(),
		userID:    userID,
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the session list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.err = nil
	return v.loadSessions()
}

func (v *View) loadSessions() tea.Cmd {
	ctx, chat, userID := v.ctx, v.chat, v.userID
	return func() tea.Msg {
		if chat == nil {
			return messages.SessionsLoaded{Err: ErrNoChatService}
		}
		ids, err := chat.Sessions(ctx, userID)
		return messages.SessionsLoaded{Sessions: ids, Err: err}
	}
}

// Update handles messages for the sessions view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SessionsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.list.SetSessions(msg.Sessions, v.active)
		v.statusbar.SetState(status.StateSessions)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keymap.Back):
		return v, changeView(messages.ViewChat)

	case keymap.Matches(key, v.keymap.NewSession):
		return v, selectSession(NewSessionID())

	case keymap.Matches(key, v.keymap.Select):
		id := v.list.SelectedSession()
		if id == "" {
			return v, nil
		}
		return v, selectSession(id)
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: view}
	}
}

func selectSession(id string) tea.Cmd {
	return func() tea.Msg {
		return messages.SessionSelected{SessionID: id}
	}
}

// View renders the sessions view.
func (v *View) View() string {
	title := v.styles.Title.Render("Sessions") + " " + v.styles.Muted.Render(v.userID)

	var body string
	switch {
	case v.err != nil:
		body = v.styles.Error.Render("Error: " + v.err.Error())
	case v.loading:
		body = v.styles.Muted.Render("Loading sessions...")
	default:
		body = v.list.View()
	}

	help := v.styles.Help.Render("enter: open | ctrl+n: new session | esc: back")

	return lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help, v.statusbar.View())
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusbar.SetWidth(width)
	// Title, help and status bar plus spacing.
	v.list.SetDimensions(width, max(height-6, 1))
}

// SetActive marks the session currently open in the chat view.
func (v *View) SetActive(sessionID string) {
	v.active = sessionID
	v.statusbar.SetSession(sessionID)
	v.list.SetSessions(v.list.Sessions(), sessionID)
}

// Sessions returns the listed session IDs.
func (v *View) Sessions() []string {
	return v.list.Sessions()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}
