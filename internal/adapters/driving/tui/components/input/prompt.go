// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
)

// promptHeight is the number of visible input lines.
const promptHeight = 3

// Prompt wraps a bubbles textarea for entering questions.
// Enter is reserved for sending, so the textarea never inserts newlines.
type Prompt struct {
	textarea textarea.Model
	styles   *styles.Styles
	width    int
}

// NewPrompt creates a new question input component.
func NewPrompt(s *styles.Styles) *Prompt {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask a question about your documents..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(promptHeight)
	ta.SetWidth(60)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	return &Prompt{
		textarea: ta,
		styles:   s,
		width:    60,
	}
}

// Init initialises the prompt.
func (p *Prompt) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles input messages.
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	var cmd tea.Cmd
	p.textarea, cmd = p.textarea.Update(msg)
	return p, cmd
}

// View renders the prompt.
func (p *Prompt) View() string {
	return p.styles.InputField.Render(p.textarea.View())
}

// Value returns the current input value.
func (p *Prompt) Value() string {
	return p.textarea.Value()
}

// SetValue sets the input value.
func (p *Prompt) SetValue(value string) {
	p.textarea.SetValue(value)
}

// Focus sets focus on the input.
func (p *Prompt) Focus() tea.Cmd {
	return p.textarea.Focus()
}

// Blur removes focus from the input.
func (p *Prompt) Blur() {
	p.textarea.Blur()
}

// Focused returns whether the input is focused.
func (p *Prompt) Focused() bool {
	return p.textarea.Focused()
}

// SetWidth sets the outer width of the prompt.
func (p *Prompt) SetWidth(width int) {
	p.width = width
	// Account for border and padding
	p.textarea.SetWidth(max(width-4, 20))
}

// Width returns the current width.
func (p *Prompt) Width() int {
	return p.width
}

// Height returns the rendered height including the border.
func (p *Prompt) Height() int {
	return promptHeight + 2
}

// Reset clears the input.
func (p *Prompt) Reset() {
	p.textarea.Reset()
}
