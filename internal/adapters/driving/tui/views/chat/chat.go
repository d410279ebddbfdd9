// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// ErrNoChatService indicates that no chat service was provided.
var ErrNoChatService = errors.New("chat service is required")

// entry is one transcript line. Failed turns carry err instead of content.
type entry struct {
	role    domain.Role
	content string
	err     error
}

// View shows the transcript of one session above a question prompt.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	prompt    *input.Prompt
	viewport  viewport.Model
	spinner   spinner.Model
	statusbar *status.Bar

	chat driving.ChatService
	ctx  context.Context

	userID    string
	sessionID string
	entries   []entry
	thinking  bool

	renderer      *glamour.TermRenderer
	rendererWidth int

	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a new chat view for a user's session.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	chat driving.ChatService,
	userID, sessionID string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:    s,
		keymap:    km,
		prompt:    input.NewPrompt(s),
		viewport:  viewport.New(80, 14),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Spinner)),
		statusbar: status.NewBar(s, km),
		chat:      chat,
		ctx:       context.Background(),
		userID:    userID,
		sessionID: sessionID,
		width:     80,
		height:    24,
	}
	v.statusbar.SetSession(sessionID)
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init focuses the prompt and loads the session history.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.prompt.Init(), v.loadHistory())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.HistoryLoaded:
		v.handleHistoryLoaded(msg)
		return v, nil

	case messages.AnswerReceived:
		v.handleAnswerReceived(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keymap.Send):
		return v, v.submit()

	case keymap.Matches(key, v.keymap.ScrollUp), keymap.Matches(key, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

// submit sends the prompt text as a new turn. Input is ignored while an
// answer is pending.
func (v *View) submit() tea.Cmd {
	if v.thinking {
		return nil
	}
	query := strings.TrimSpace(v.prompt.Value())
	if query == "" {
		return nil
	}

	v.entries = append(v.entries, entry{role: domain.RoleUser, content: query})
	v.prompt.Reset()
	v.thinking = true
	v.err = nil
	v.statusbar.SetState(status.StateThinking)
	v.refresh()

	return tea.Batch(v.spinner.Tick, v.ask(query))
}

// ask runs one chat turn in the background.
func (v *View) ask(query string) tea.Cmd {
	ctx, chat, userID, sessionID := v.ctx, v.chat, v.userID, v.sessionID
	return func() tea.Msg {
		if chat == nil {
			return messages.AnswerReceived{SessionID: sessionID, Query: query, Err: ErrNoChatService}
		}
		answer, err := chat.Send(ctx, userID, sessionID, query)
		return messages.AnswerReceived{SessionID: sessionID, Query: query, Answer: answer, Err: err}
	}
}

// loadHistory reads the stored transcript of the current session.
func (v *View) loadHistory() tea.Cmd {
	ctx, chat, userID, sessionID := v.ctx, v.chat, v.userID, v.sessionID
	return func() tea.Msg {
		if chat == nil {
			return messages.HistoryLoaded{SessionID: sessionID, Err: ErrNoChatService}
		}
		msgs, err := chat.History(ctx, userID, sessionID, 0)
		return messages.HistoryLoaded{SessionID: sessionID, Messages: msgs, Err: err}
	}
}

func (v *View) handleHistoryLoaded(msg messages.HistoryLoaded) {
	if msg.SessionID != v.sessionID {
		return
	}
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.entries = make([]entry, 0, len(msg.Messages))
	for _, m := range msg.Messages {
		v.entries = append(v.entries, entry{role: m.Role, content: m.Content})
	}
	v.statusbar.SetState(status.StateReady)
	v.refresh()
}

func (v *View) handleAnswerReceived(msg messages.AnswerReceived) {
	// A late answer for a session the user has left is already stored.
	if msg.SessionID != v.sessionID {
		return
	}
	v.thinking = false

	if msg.Err != nil {
		v.entries = append(v.entries, entry{role: domain.RoleAssistant, err: msg.Err})
		v.setError(msg.Err)
		v.refresh()
		return
	}

	v.entries = append(v.entries, entry{role: domain.RoleAssistant, content: msg.Answer})
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
	v.refresh()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// refresh re-renders the transcript and scrolls to the newest message.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()

	count := 0
	for _, e := range v.entries {
		if e.err == nil {
			count++
		}
	}
	v.statusbar.SetMessageCount(count)
}

func (v *View) renderTranscript() string {
	if len(v.entries) == 0 {
		return v.styles.Muted.Render("No messages yet. Ask something about your documents.")
	}

	blocks := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		blocks = append(blocks, v.renderEntry(e))
	}
	return strings.Join(blocks, "\n\n")
}

func (v *View) renderEntry(e entry) string {
	if e.role == domain.RoleUser {
		return v.styles.UserLabel.Render("You") + "\n" + v.styles.Normal.Render(e.content)
	}

	label := v.styles.AssistantLabel.Render("Assistant")
	if e.err != nil {
		return label + "\n" + v.styles.Error.Render("Error: "+e.err.Error())
	}
	return label + "\n" + v.renderMarkdown(e.content)
}

// renderMarkdown formats an answer with glamour, falling back to plain text.
func (v *View) renderMarkdown(text string) string {
	if v.renderer == nil || v.rendererWidth != v.width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(styles.GlamourStyle),
			glamour.WithWordWrap(max(v.width-4, 20)),
		)
		if err != nil {
			return text
		}
		v.renderer, v.rendererWidth = r, v.width
	}

	out, err := v.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("ragchat") + " " +
		v.styles.Muted.Render(v.userID+" / "+v.sessionID)

	var thinking string
	if v.thinking {
		thinking = v.spinner.View() + v.styles.Muted.Render(" Thinking...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		v.viewport.View(),
		thinking,
		v.prompt.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.prompt.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.viewport.Width = width
	// Header, thinking line and status bar take one line each.
	v.viewport.Height = max(height-v.prompt.Height()-3, 1)
	v.refresh()
}

// SetSession switches to another session and loads its history.
func (v *View) SetSession(sessionID string) tea.Cmd {
	v.sessionID = sessionID
	v.entries = nil
	v.thinking = false
	v.err = nil
	v.statusbar.Clear()
	v.statusbar.SetSession(sessionID)
	v.refresh()
	return v.loadHistory()
}

// SessionID returns the active session.
func (v *View) SessionID() string {
	return v.sessionID
}

// UserID returns the conversation owner.
func (v *View) UserID() string {
	return v.userID
}

// Thinking reports whether an answer is pending.
func (v *View) Thinking() bool {
	return v.thinking
}

// Transcript returns the visible messages as role/content pairs.
func (v *View) Transcript() []domain.Turn {
	turns := make([]domain.Turn, 0, len(v.entries))
	for _, e := range v.entries {
		if e.err == nil {
			turns = append(turns, domain.Turn{Role: e.role, Content: e.content})
		}
	}
	return turns
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Prompt returns the current prompt text.
func (v *View) Prompt() string {
	return v.prompt.Value()
}

// SetPrompt sets the prompt text.
func (v *View) SetPrompt(text string) {
	v.prompt.SetValue(text)
}
