package ghost

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap binds keys while a session is active.
type KeyMap struct {
	PrevCandidate key.Binding
	NextCandidate key.Binding
	PrevAgent     key.Binding
	NextAgent     key.Binding
	Accept        key.Binding
	Cancel        key.Binding
	// Dismiss keys close the overlay and still reach the editor.
	Dismiss key.Binding
}

var DefaultKeyMap = KeyMap{
	PrevCandidate: key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous")),
	NextCandidate: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next")),
	PrevAgent:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev agent")),
	NextAgent:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next agent")),
	Accept:        key.NewBinding(key.WithKeys("tab", "enter"), key.WithHelp("tab", "accept")),
	Cancel:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
	Dismiss:       key.NewBinding(key.WithKeys("backspace", "delete", "ctrl+h", "ctrl+d", "ctrl+v", "ctrl+z")),
}

// ShortHelp lists the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Accept, k.PrevCandidate, k.NextCandidate, k.PrevAgent, k.NextAgent, k.Cancel}
}
