package notepad

import (
	"fmt"
	"strings"

	"github.com/atinylittleshell/ghostwrite/internal/agents"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

// pickedMsg closes the picker. A nil ids slice means it was cancelled.
type pickedMsg struct {
	ids []string
}

type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Accept key.Binding
	Cancel key.Binding
}

var defaultPickerKeyMap = pickerKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "ctrl+p")),
	Down:   key.NewBinding(key.WithKeys("down", "ctrl+n")),
	Toggle: key.NewBinding(key.WithKeys(" ")),
	Accept: key.NewBinding(key.WithKeys("enter")),
	Cancel: key.NewBinding(key.WithKeys("esc")),
}

type agentSource []agents.Agent

func (s agentSource) String(i int) string { return s[i].SearchText() }
func (s agentSource) Len() int            { return len(s) }

// picker selects one or more agents for a session.
type picker struct {
	keys     pickerKeyMap
	query    textinput.Model
	agents   []agents.Agent
	matches  []int
	cursor   int
	selected []string
	width    int
	maxRows  int
}

func newPicker(list []agents.Agent, width int) *picker {
	query := textinput.New()
	query.Prompt = "agent: "
	query.Placeholder = "type to filter, space to select"
	query.Focus()

	p := &picker{
		keys:    defaultPickerKeyMap,
		query:   query,
		agents:  list,
		width:   width,
		maxRows: 8,
	}
	p.filter()
	return p
}

func (p *picker) filter() {
	q := strings.TrimSpace(p.query.Value())
	p.matches = p.matches[:0]
	if q == "" {
		for i := range p.agents {
			p.matches = append(p.matches, i)
		}
	} else {
		for _, match := range fuzzy.FindFrom(q, agentSource(p.agents)) {
			p.matches = append(p.matches, match.Index)
		}
	}
	p.cursor = min(p.cursor, max(len(p.matches)-1, 0))
}

func (p *picker) highlighted() (agents.Agent, bool) {
	if len(p.matches) == 0 {
		return agents.Agent{}, false
	}
	return p.agents[p.matches[p.cursor]], true
}

func (p *picker) isSelected(id string) bool {
	for _, s := range p.selected {
		if s == id {
			return true
		}
	}
	return false
}

func (p *picker) toggle(id string) {
	for i, s := range p.selected {
		if s == id {
			p.selected = append(p.selected[:i], p.selected[i+1:]...)
			return
		}
	}
	p.selected = append(p.selected, id)
}

func (p *picker) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		p.query, cmd = p.query.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(keyMsg, p.keys.Cancel):
		return func() tea.Msg { return pickedMsg{} }
	case key.Matches(keyMsg, p.keys.Accept):
		ids := append([]string(nil), p.selected...)
		if len(ids) == 0 {
			agent, ok := p.highlighted()
			if !ok {
				return nil
			}
			ids = []string{agent.ID}
		}
		return func() tea.Msg { return pickedMsg{ids: ids} }
	case key.Matches(keyMsg, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
		return nil
	case key.Matches(keyMsg, p.keys.Down):
		if p.cursor < len(p.matches)-1 {
			p.cursor++
		}
		return nil
	case key.Matches(keyMsg, p.keys.Toggle):
		if agent, ok := p.highlighted(); ok {
			p.toggle(agent.ID)
		}
		return nil
	}

	var cmd tea.Cmd
	p.query, cmd = p.query.Update(msg)
	p.filter()
	return cmd
}

var (
	pickerBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)
	pickerCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	pickerDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (p *picker) View() string {
	inner := max(p.width-4, 20)

	var b strings.Builder
	b.WriteString(p.query.View())
	b.WriteString("\n")

	if len(p.matches) == 0 {
		b.WriteString(pickerDimStyle.Render("no matching agent"))
		return pickerBorderStyle.Width(inner).Render(b.String())
	}

	start := 0
	if p.cursor >= p.maxRows {
		start = p.cursor - p.maxRows + 1
	}
	end := min(len(p.matches), start+p.maxRows)
	for i := start; i < end; i++ {
		agent := p.agents[p.matches[i]]
		mark := "[ ]"
		if p.isSelected(agent.ID) {
			mark = "[x]"
		}
		line := pickerLine(mark, agent, inner-4)
		if i == p.cursor {
			line = pickerCursorStyle.Render("›") + " " + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return pickerBorderStyle.Width(inner).Render(b.String())
}

// pickerLine truncates the plain row to width before the description is
// dimmed, so escape codes never count toward the width.
func pickerLine(mark string, agent agents.Agent, width int) string {
	head := fmt.Sprintf("%s %s %s", mark, agent.Icon, agent.Name)
	if agent.Description == "" {
		return runewidth.Truncate(head, width, "…")
	}
	plain := runewidth.Truncate(head+" - "+agent.Description, width, "…")
	if len(plain) <= len(head) {
		return plain
	}
	return plain[:len(head)] + pickerDimStyle.Render(plain[len(head):])
}
