// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
)

// SessionList displays session IDs in a navigable list.
type SessionList struct {
	sessions []string
	active   string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSessionList creates a new session list component.
func NewSessionList(s *styles.Styles) *SessionList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SessionList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the session list.
func (l *SessionList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SessionList) Update(msg tea.Msg) (*SessionList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the session list.
func (l *SessionList) View() string {
	if len(l.sessions) == 0 {
		return l.styles.Muted.Render("No sessions yet")
	}

	lines := make([]string, 0, len(l.sessions)+2)
	lines = append(lines, l.styles.Title.Render(fmt.Sprintf("Sessions (%d)", len(l.sessions))), "")

	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.sessions))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSession(i))
	}

	return strings.Join(lines, "\n")
}

// renderSession formats a single row. The active session is marked with *.
func (l *SessionList) renderSession(index int) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	name := l.sessions[index]
	maxLen := max(l.width-6, 10)
	if len(name) > maxLen {
		name = name[:maxLen-3] + "..."
	}

	marker := " "
	if l.sessions[index] == l.active {
		marker = "*"
	}

	row := fmt.Sprintf("%s%s %s", indicator, marker, name)
	if index == l.selected {
		return l.styles.Selected.Render(row)
	}
	return l.styles.Normal.Render(row)
}

// SetSessions replaces the list and selects the active session if present.
func (l *SessionList) SetSessions(sessions []string, active string) {
	l.sessions = sessions
	l.active = active
	l.selected = 0
	for i, s := range sessions {
		if s == active {
			l.selected = i
			break
		}
	}
}

// Sessions returns the listed session IDs.
func (l *SessionList) Sessions() []string {
	return l.sessions
}

// Selected returns the index of the selected row.
func (l *SessionList) Selected() int {
	return l.selected
}

// SelectedSession returns the selected session ID, or "" if the list is empty.
func (l *SessionList) SelectedSession() string {
	if l.selected < 0 || l.selected >= len(l.sessions) {
		return ""
	}
	return l.sessions[l.selected]
}

// MoveUp moves selection up.
func (l *SessionList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SessionList) MoveDown() {
	if l.selected < len(l.sessions)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SessionList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of sessions.
func (l *SessionList) Count() int {
	return len(l.sessions)
}
