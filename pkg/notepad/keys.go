package notepad

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the application level bindings. The trigger key for the
// tap gesture lives in the settings, not here.
type KeyMap struct {
	Continue    key.Binding
	PickAgents  key.Binding
	Save        key.Binding
	SwitchFocus key.Binding
	Quit        key.Binding
}

var DefaultKeyMap = KeyMap{
	Continue:    key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "continue")),
	PickAgents:  key.NewBinding(key.WithKeys("f3"), key.WithHelp("f3", "agents")),
	Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	SwitchFocus: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "title")),
	Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Continue, k.PickAgents, k.Save, k.SwitchFocus, k.Quit}
}
