// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
	StateHelp     State = "help"
	StateSessions State = "sessions"
)

// Bar displays the active conversation, its state and keybinding hints.
type Bar struct {
	styles       *styles.Styles
	keymap       *keymap.KeyMap
	state        State
	message      string
	session      string
	messageCount int
	width        int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	// Content must fit inside the style's horizontal padding or the bar wraps.
	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	left := s.renderLeft()
	right := s.renderRight(inner - lipgloss.Width(left) - 1)

	padding := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the session and state.
func (s *Bar) renderLeft() string {
	var prefix string
	if s.session != "" {
		prefix = s.styles.Normal.Render(s.session) + " "
	}

	switch s.state {
	case StateThinking:
		return prefix + s.styles.Muted.Render("Thinking...")
	case StateError:
		if s.message != "" {
			return prefix + s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return prefix + s.styles.Error.Render("Error")
	case StateHelp:
		return s.styles.Normal.Render("Help")
	case StateSessions:
		return s.styles.Normal.Render("Sessions")
	case StateReady:
		if s.messageCount > 0 {
			return prefix + s.styles.Muted.Render(fmt.Sprintf("%d messages", s.messageCount))
		}
	}
	return prefix + s.styles.Muted.Render("Ready")
}

// renderRight renders as many keybinding hints as fit in maxWidth.
func (s *Bar) renderRight(maxWidth int) string {
	var bindings []key.Binding
	if s.state == StateSessions {
		bindings = s.keymap.SessionsHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		next := append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
		if lipgloss.Width(strings.Join(next, " | ")) > maxWidth {
			break
		}
		hints = next
	}
	if len(hints) == 0 {
		return ""
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetSession sets the displayed session ID.
func (s *Bar) SetSession(session string) {
	s.session = session
}

// Session returns the displayed session ID.
func (s *Bar) Session() string {
	return s.session
}

// SetMessageCount sets the number of messages in the transcript.
func (s *Bar) SetMessageCount(count int) {
	s.messageCount = count
}

// MessageCount returns the number of messages in the transcript.
func (s *Bar) MessageCount() int {
	return s.messageCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state. The session is kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.messageCount = 0
}
