// Package notepad is the terminal application: a titled block document with
// ghost completions triggered by a tap gesture or command keys.
package notepad

import (
	"strings"
	"time"

	"github.com/atinylittleshell/ghostwrite/internal/agents"
	"github.com/atinylittleshell/ghostwrite/internal/doccontext"
	"github.com/atinylittleshell/ghostwrite/internal/notes"
	"github.com/atinylittleshell/ghostwrite/internal/settings"
	"github.com/atinylittleshell/ghostwrite/pkg/docedit"
	"github.com/atinylittleshell/ghostwrite/pkg/gesture"
	"github.com/atinylittleshell/ghostwrite/pkg/ghost"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"go.uber.org/zap"
)

// Saver persists the document.
type Saver interface {
	Save(title string, blocks []docedit.Block) error
}

// Enricher is a related-notes source whose toggles follow the settings.
type Enricher interface {
	ghost.Enricher
	SetOptions(notes.EnrichOptions)
	Invalidate()
}

type Config struct {
	Title    string
	Blocks   []docedit.Block
	Settings settings.Settings

	Generator ghost.Generator
	// NewGenerator rebuilds the generator after a settings reload. Optional.
	NewGenerator func(settings.Generation) ghost.Generator
	Enricher     Enricher
	Saver        Saver
	// Changes delivers reloaded settings. Optional.
	Changes <-chan settings.ChangedMsg
	Logger  *zap.Logger
}

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Model is the bubbletea model of the application.
type Model struct {
	logger       *zap.Logger
	settings     settings.Settings
	changes      <-chan settings.ChangedMsg
	newGenerator func(settings.Generation) ghost.Generator
	enricher     Enricher
	saver        Saver

	keys      KeyMap
	help      help.Model
	title     textinput.Model
	editor    *docedit.Model
	extractor *doccontext.Extractor
	registry  *agents.Registry
	detector  *gesture.Detector
	engine    *ghost.Engine
	indicator LLMIndicator
	picker    *picker

	notice     string
	savedTitle string
	lastSaved  time.Time

	width  int
	height int
	done   bool
}

func New(cfg Config) *Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	title := textinput.New()
	title.Prompt = ""
	title.Placeholder = "Untitled"
	title.SetValue(cfg.Title)

	editor := docedit.New(cfg.Blocks)
	editor.Placeholder = "Start writing, then tap " + cfg.Settings.TriggerKey + " for a suggestion."
	editor.Focus()

	m := &Model{
		logger:       logger,
		settings:     cfg.Settings,
		changes:      cfg.Changes,
		newGenerator: cfg.NewGenerator,
		enricher:     cfg.Enricher,
		saver:        cfg.Saver,
		keys:         DefaultKeyMap,
		help:         help.New(),
		title:        title,
		editor:       editor,
		detector:     gesture.New(cfg.Settings.TriggerKey, cfg.Settings.DoubleTapDelay),
		indicator:    NewLLMIndicator(),
		savedTitle:   cfg.Title,
	}
	m.extractor = doccontext.New(editor, func() string { return m.title.Value() }, cfg.Settings.Context)
	m.registry = agents.NewRegistry(cfg.Settings.Agents, cfg.Settings.DefaultAgent)

	// A nil *notes.Enricher must not reach the engine as a non-nil interface.
	var enricher ghost.Enricher
	if cfg.Enricher != nil {
		enricher = cfg.Enricher
		cfg.Enricher.SetOptions(enrichOptions(cfg.Settings))
	}
	m.engine = ghost.NewEngine(ghost.Config{
		Surface:   editor,
		Context:   m.extractor,
		Generator: cfg.Generator,
		Enricher:  enricher,
		Agents:    m.registry,
		Logger:    logger,
		Options:   engineOptions(cfg.Settings),
	})
	return m
}

func engineOptions(s settings.Settings) ghost.Options {
	return ghost.Options{
		Timeout:       s.Generation.Timeout,
		EnrichTimeout: s.Augment.Timeout,
		NoteQuery:     s.NoteQueryEnabled(),
		FormatGuide:   s.FormatGuideEnabled(),
	}
}

func enrichOptions(s settings.Settings) notes.EnrichOptions {
	return notes.EnrichOptions{
		NoteQuery: s.Augment.Enabled && s.Augment.NoteQuery,
		Backlinks: s.Augment.Enabled && s.Augment.Backlinks,
		Limit:     s.Augment.Limit,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForSettings())
}

func (m *Model) waitForSettings() tea.Cmd {
	changes := m.changes
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-changes
		if !ok {
			return nil
		}
		return msg
	}
}

// Dirty reports unsaved changes to the title or the blocks.
func (m *Model) Dirty() bool {
	return m.editor.Dirty() || m.title.Value() != m.savedTitle
}

func (m *Model) Editor() *docedit.Model { return m.editor }
func (m *Model) Engine() *ghost.Engine  { return m.engine }
func (m *Model) Title() string          { return m.title.Value() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.title.Width = max(0, msg.Width-4)
		m.editor.SetWidth(max(0, msg.Width-2))
		m.help.Width = msg.Width
		return m, nil

	case settings.ChangedMsg:
		m.applySettings(msg.Settings)
		return m, m.waitForSettings()

	case gesture.TapMsg:
		m.logger.Debug("trigger key gesture", zap.Stringer("kind", msg.Kind))
		if msg.Kind == gesture.DoubleTap {
			return m, m.openPicker()
		}
		return m, m.start(ghost.Trigger{})

	case pickedMsg:
		m.picker = nil
		if msg.ids == nil {
			return m, nil
		}
		return m, m.start(ghost.Trigger{AgentIDs: msg.ids})

	case ghost.NoticeMsg:
		m.notice = msg.Text
		return m, nil

	case LLMTickMsg:
		return m, m.indicator.Update(msg)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	cmds := []tea.Cmd{
		m.engine.Update(msg),
		m.detector.Update(msg),
		m.editor.Update(msg),
	}
	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	cmds = append(cmds, cmd, m.syncIndicator())
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}
	if m.picker != nil {
		return m.picker.Update(msg)
	}
	m.notice = ""

	// Terminals report no key release, so every press is followed by an
	// immediate release.
	if pressed := msg.String(); m.detector.Matches(pressed) {
		consumed, cmd := m.detector.KeyDown(pressed, m.editor.Focused())
		m.detector.KeyUp(pressed)
		if consumed {
			return cmd
		}
	}

	consumed, cmd := m.engine.HandleKey(msg)
	cmds := []tea.Cmd{cmd, m.syncIndicator()}
	if consumed {
		return tea.Batch(cmds...)
	}

	switch {
	case key.Matches(msg, m.keys.Continue) && m.editor.Focused():
		cmds = append(cmds, m.start(ghost.Trigger{}))
	case key.Matches(msg, m.keys.PickAgents) && m.editor.Focused():
		cmds = append(cmds, m.openPicker())
	case key.Matches(msg, m.keys.Save):
		m.save()
	case key.Matches(msg, m.keys.SwitchFocus):
		cmds = append(cmds, m.switchFocus())
	case m.editor.Focused():
		cmds = append(cmds, m.editor.Update(msg))
	case msg.Type == tea.KeyEnter:
		cmds = append(cmds, m.switchFocus())
	default:
		var cmd tea.Cmd
		m.title, cmd = m.title.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *Model) start(trigger ghost.Trigger) tea.Cmd {
	m.notice = ""
	cmd := m.engine.Start(trigger)
	return tea.Batch(cmd, m.syncIndicator())
}

func (m *Model) openPicker() tea.Cmd {
	enabled := m.registry.Enabled()
	if len(enabled) == 0 {
		m.notice = ghost.NoAgentText
		return nil
	}
	m.engine.Hide()
	m.picker = newPicker(enabled, m.width)
	return m.syncIndicator()
}

func (m *Model) switchFocus() tea.Cmd {
	m.engine.Hide()
	if m.editor.Focused() {
		m.editor.Blur()
		return m.title.Focus()
	}
	m.title.Blur()
	m.editor.Focus()
	return m.syncIndicator()
}

// syncIndicator mirrors the engine's request state on the indicator.
func (m *Model) syncIndicator() tea.Cmd {
	switch {
	case m.engine.Loading():
		return m.indicator.SetStatus(LLMStatusInFlight)
	case m.engine.Active() && m.engine.Text() == ghost.FailedText:
		return m.indicator.SetStatus(LLMStatusError)
	case m.engine.Active() && m.engine.CacheLen() > 0:
		return m.indicator.SetStatus(LLMStatusSuccess)
	case m.indicator.Status() == LLMStatusInFlight:
		return m.indicator.SetStatus(LLMStatusIdle)
	}
	return nil
}

func (m *Model) save() {
	if m.saver == nil {
		return
	}
	title := strings.TrimSpace(m.title.Value())
	if err := m.saver.Save(title, m.editor.Blocks()); err != nil {
		m.logger.Warn("failed to save document", zap.String("title", title), zap.Error(err))
		m.notice = "save failed: " + err.Error()
		return
	}
	m.editor.MarkSaved()
	m.savedTitle = m.title.Value()
	m.lastSaved = time.Now()
	if m.enricher != nil {
		m.enricher.Invalidate()
	}
	m.logger.Debug("document saved", zap.String("title", title), zap.Int("blocks", len(m.editor.Blocks())))
}

func (m *Model) quit() tea.Cmd {
	m.engine.Hide()
	if m.Dirty() {
		m.save()
	}
	m.done = true
	return tea.Quit
}

// applySettings applies a reloaded configuration. A running session keeps
// going; the changes apply to the next trigger or generation.
func (m *Model) applySettings(s settings.Settings) {
	m.settings = s
	m.detector.SetKey(s.TriggerKey)
	m.detector.SetDelay(s.DoubleTapDelay)
	m.extractor.SetScope(s.Context)
	m.registry = agents.NewRegistry(s.Agents, s.DefaultAgent)
	m.engine.SetAgents(m.registry)
	m.engine.SetOptions(engineOptions(s))
	if m.enricher != nil {
		m.enricher.SetOptions(enrichOptions(s))
	}
	if m.newGenerator != nil {
		m.engine.SetGenerator(m.newGenerator(s.Generation))
	}
	m.logger.Debug("settings applied",
		zap.String("triggerKey", m.detector.Key()),
		zap.Duration("doubleTapDelay", m.detector.Delay()),
		zap.Int("agents", len(m.registry.Enabled())),
	)
}

func (m *Model) View() string {
	if m.done {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	innerWidth := max(0, width-2)

	var result strings.Builder
	result.WriteString(titleStyle.Render(m.title.View()))
	result.WriteString("\n")

	var extra string
	if m.picker != nil {
		m.picker.width = width
		extra = m.picker.View()
	}

	lines := strings.Split(m.editor.View(), "\n")
	if m.height > 0 {
		// title, borders, status and help
		available := max(1, m.height-5-lipgloss.Height(extra))
		lines = visibleLines(lines, available)
		for len(lines) < available {
			lines = append(lines, "")
		}
	}

	result.WriteString(borderStyle.Render("╭" + strings.Repeat("─", innerWidth) + "╮"))
	result.WriteString("\n")
	for _, line := range lines {
		line = truncate.String(line, uint(innerWidth))
		padding := max(0, innerWidth-lipgloss.Width(line))
		result.WriteString(borderStyle.Render("│"))
		result.WriteString(line)
		result.WriteString(strings.Repeat(" ", padding))
		result.WriteString(borderStyle.Render("│"))
		result.WriteString("\n")
	}

	indicatorStr := " " + m.indicator.View() + " "
	bottomLineWidth := max(0, innerWidth-lipgloss.Width(indicatorStr))
	result.WriteString(borderStyle.Render("╰"+strings.Repeat("─", bottomLineWidth)) + indicatorStr + borderStyle.Render("╯"))
	result.WriteString("\n")

	if extra != "" {
		result.WriteString(extra)
		result.WriteString("\n")
	}

	result.WriteString(truncate.StringWithTail(m.statusLine(), uint(width), "…"))
	result.WriteString("\n")
	if m.engine.Active() {
		result.WriteString(m.help.ShortHelpView(m.engine.KeyMap().ShortHelp()))
	} else {
		result.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return result.String()
}

func (m *Model) statusLine() string {
	if m.notice != "" {
		return noticeStyle.Render(m.notice)
	}
	if status := m.engine.Status(); status != "" {
		return statusStyle.Render(status)
	}

	var saved string
	switch {
	case m.Dirty():
		saved = "unsaved changes"
	case m.lastSaved.IsZero():
		saved = "no changes"
	default:
		saved = "saved " + humanize.Time(m.lastSaved)
	}
	return statusStyle.Render(saved + " · tap " + m.detector.Key() + " to continue, twice for agents")
}

// visibleLines keeps the line with the cursor inside a window of height rows.
func visibleLines(lines []string, height int) []string {
	if len(lines) <= height {
		return lines
	}
	cursor := len(lines) - 1
	for i, line := range lines {
		if strings.Contains(line, docedit.CursorGlyph) {
			cursor = i
			break
		}
	}
	start := max(0, cursor-height+1)
	return lines[start : start+height]
}

// Run starts the full-screen program and blocks until the user quits.
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
