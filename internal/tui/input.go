// Package tui is the terminal embedding surface: a Bubble Tea model that
// drives a grid instance, feeds it viewport and scroll changes, paints its
// render trees with the composed style sheet, and restores input focus
// across rebuilds.
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// InputItem wraps a textinput as a focusable toolbar item so the renderer
// can capture and restore its focus and cursor across tree rebuilds.
type InputItem struct {
	id    string
	input textinput.Model
}

// NewInputItem creates a focusable toolbar input.
func NewInputItem(id, placeholder string) *InputItem {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "/"
	ti.CharLimit = 128
	return &InputItem{id: id, input: ti}
}

// ID implements render.Item.
func (i *InputItem) ID() string { return i.id }

// View implements render.Item.
func (i *InputItem) View() string { return i.input.View() }

// Focused implements render.Focusable.
func (i *InputItem) Focused() bool { return i.input.Focused() }

// Focus implements render.Focusable.
func (i *InputItem) Focus() { i.input.Focus() }

// Blur implements render.Focusable.
func (i *InputItem) Blur() { i.input.Blur() }

// Selection implements render.Focusable. A textinput has a caret rather
// than a range selection, so both offsets carry the cursor position.
func (i *InputItem) Selection() (int, int) {
	pos := i.input.Position()
	return pos, pos
}

// SetSelection implements render.Focusable.
func (i *InputItem) SetSelection(start, _ int) {
	i.input.SetCursor(start)
}

// Value returns the current input text.
func (i *InputItem) Value() string { return i.input.Value() }

// Reset clears the input text.
func (i *InputItem) Reset() {
	i.input.SetValue("")
}

// Update routes a Bubble Tea message to the wrapped textinput.
func (i *InputItem) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	i.input, cmd = i.input.Update(msg)
	return cmd
}
