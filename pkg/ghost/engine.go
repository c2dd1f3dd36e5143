package ghost

import (
	"context"
	"fmt"
	"time"

	"github.com/atinylittleshell/ghostwrite/internal/agents"
	"github.com/atinylittleshell/ghostwrite/internal/prompt"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	NoAgentText      = "no agent available"
	NoContextText    = "could not read context"
	FailedText       = "generation failed"
	generatingSuffix = "generating..."
)

// Direction moves through the candidate cache.
type Direction int

const (
	Up Direction = iota
	Down
)

// Options are the live-reloadable knobs. Changes apply to the next
// generation.
type Options struct {
	Timeout       time.Duration
	EnrichTimeout time.Duration
	NoteQuery     bool
	FormatGuide   bool
}

func DefaultOptions() Options {
	return Options{
		Timeout:       60 * time.Second,
		EnrichTimeout: 3 * time.Second,
		NoteQuery:     true,
	}
}

type Config struct {
	Surface   Surface
	Context   ContextProvider
	Generator Generator
	Enricher  Enricher
	Agents    AgentSource
	Logger    *zap.Logger
	Options   Options
	KeyMap    *KeyMap
}

// candidateMsg is the outcome of one generation call.
type candidateMsg struct {
	stateId int
	target  int
	text    string
	err     error
}

// Engine is the completion session state machine. All methods must be called
// from the bubbletea update loop; generation runs inside returned commands
// and reports back through Update.
type Engine struct {
	surface   Surface
	provider  ContextProvider
	generator Generator
	enricher  Enricher
	source    AgentSource
	logger    *zap.Logger
	options   Options
	keys      KeyMap
	overlay   overlay

	active     bool
	agentList  []agents.Agent
	agentIndex int
	cache      []string
	cursor     int
	loading    bool
	anchor     Anchor

	// stateId changes whenever the cache is reset so replies for an earlier
	// agent or session are discarded.
	stateId   int
	sessionId string
}

func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	keys := DefaultKeyMap
	if cfg.KeyMap != nil {
		keys = *cfg.KeyMap
	}
	options := cfg.Options
	if options.Timeout <= 0 {
		options.Timeout = DefaultOptions().Timeout
	}
	if options.EnrichTimeout <= 0 {
		options.EnrichTimeout = DefaultOptions().EnrichTimeout
	}

	return &Engine{
		surface:   cfg.Surface,
		provider:  cfg.Context,
		generator: cfg.Generator,
		enricher:  cfg.Enricher,
		source:    cfg.Agents,
		logger:    logger,
		options:   options,
		keys:      keys,
		overlay:   overlay{surface: cfg.Surface, logger: logger},
	}
}

func (e *Engine) SetOptions(options Options) {
	if options.Timeout <= 0 {
		options.Timeout = e.options.Timeout
	}
	if options.EnrichTimeout <= 0 {
		options.EnrichTimeout = e.options.EnrichTimeout
	}
	e.options = options
}

// SetGenerator applies to the next generation.
func (e *Engine) SetGenerator(generator Generator) {
	e.generator = generator
}

// SetAgents replaces the agent source. A running session keeps the agents it
// resolved when it started.
func (e *Engine) SetAgents(source AgentSource) {
	e.source = source
}

func (e *Engine) Active() bool  { return e.active }
func (e *Engine) Loading() bool { return e.loading }
func (e *Engine) Cursor() int   { return e.cursor }
func (e *Engine) CacheLen() int { return len(e.cache) }
func (e *Engine) Anchor() Anchor {
	return e.anchor
}

// Text is what the overlay currently displays.
func (e *Engine) Text() string {
	return e.overlay.text
}

// Agent returns the active agent of the session.
func (e *Engine) Agent() (agents.Agent, bool) {
	if !e.active || e.agentIndex < 0 || e.agentIndex >= len(e.agentList) {
		return agents.Agent{}, false
	}
	return e.agentList[e.agentIndex], true
}

// Status summarizes the session for a status line, e.g. "✍ Continue 2/3".
func (e *Engine) Status() string {
	agent, ok := e.Agent()
	if !ok {
		return ""
	}
	total := len(e.cache)
	if e.loading {
		total++
	}
	return fmt.Sprintf("%s %s %d/%d", agent.Icon, agent.Name, e.cursor+1, max(total, e.cursor+1))
}

func (e *Engine) KeyMap() KeyMap {
	return e.keys
}

// Start opens a new session, replacing any running one.
func (e *Engine) Start(trigger Trigger) tea.Cmd {
	var resolved []agents.Agent
	if e.source != nil {
		resolved = e.source.Resolve(trigger.AgentIDs)
	}
	if len(resolved) == 0 {
		e.logger.Debug("ghost start skipped, no enabled agent", zap.Strings("agentIds", trigger.AgentIDs))
		return notice(NoAgentText)
	}

	if e.active {
		e.Hide()
	}

	anchor, ok := e.surface.CursorAnchor()
	if !ok {
		e.logger.Debug("ghost start skipped, no cursor in document")
		return notice("place the cursor in the document first")
	}

	e.stateId++
	e.sessionId = uuid.NewString()
	e.active = true
	e.agentList = resolved
	e.agentIndex = 0
	e.cache = nil
	e.cursor = 0
	e.loading = false
	e.anchor = anchor

	e.logger.Debug("ghost session started",
		zap.String("sessionId", e.sessionId),
		zap.Int("agents", len(resolved)),
		zap.String("blockId", anchor.BlockID),
		zap.Int("offset", anchor.Offset),
	)
	return e.generate()
}

// Navigate moves through the cache. Moving down past the last candidate
// requests a new one, or shows the pending slot when a request is running.
func (e *Engine) Navigate(direction Direction) tea.Cmd {
	if !e.active {
		return nil
	}

	switch direction {
	case Up:
		if e.cursor > 0 {
			e.cursor--
			e.display(e.cache[e.cursor])
		}
		return nil
	case Down:
		if e.cursor < len(e.cache)-1 {
			e.cursor++
			e.display(e.cache[e.cursor])
			return nil
		}
		if e.loading {
			e.cursor = len(e.cache)
			e.display(e.generatingText())
			return nil
		}
		return e.generate()
	}
	return nil
}

// SwitchAgent moves to another agent of the session and generates for it.
// Out of range moves do nothing.
func (e *Engine) SwitchAgent(delta int) tea.Cmd {
	if !e.active {
		return nil
	}
	next := e.agentIndex + delta
	if next < 0 || next >= len(e.agentList) {
		return nil
	}

	e.stateId++
	e.agentIndex = next
	e.cache = nil
	e.cursor = 0
	e.loading = false

	e.logger.Debug("ghost switched agent",
		zap.String("sessionId", e.sessionId),
		zap.String("agentId", e.agentList[next].ID),
	)
	return e.generate()
}

// Commit inserts the displayed candidate at the anchor and ends the session.
// A pending slot commits nothing.
func (e *Engine) Commit() {
	if !e.active {
		return
	}

	var text string
	if e.cursor < len(e.cache) {
		text = e.cache[e.cursor]
	}
	anchor := e.anchor
	e.overlay.clear()

	if text != "" {
		if err := e.surface.InsertCommittedText(anchor, text); err != nil {
			e.logger.Warn("ghost commit failed", zap.String("sessionId", e.sessionId), zap.Error(err))
		} else {
			e.logger.Debug("ghost committed candidate",
				zap.String("sessionId", e.sessionId),
				zap.Int("index", e.cursor),
			)
		}
	}
	e.reset()
}

// Hide removes the overlay and ends the session without inserting anything.
func (e *Engine) Hide() {
	e.overlay.clear()
	if e.active {
		e.logger.Debug("ghost session hidden", zap.String("sessionId", e.sessionId))
	}
	e.reset()
}

func (e *Engine) reset() {
	e.stateId++
	e.active = false
	e.agentList = nil
	e.agentIndex = 0
	e.cache = nil
	e.cursor = 0
	e.loading = false
	e.anchor = Anchor{}
	e.sessionId = ""
}

// HandleKey routes a key press while a session is active. consumed reports
// whether the key must be kept from the editor.
func (e *Engine) HandleKey(msg tea.KeyMsg) (consumed bool, cmd tea.Cmd) {
	if !e.active {
		return false, nil
	}

	switch {
	case key.Matches(msg, e.keys.PrevCandidate):
		return true, e.Navigate(Up)
	case key.Matches(msg, e.keys.NextCandidate):
		return true, e.Navigate(Down)
	case key.Matches(msg, e.keys.PrevAgent):
		return true, e.SwitchAgent(-1)
	case key.Matches(msg, e.keys.NextAgent):
		return true, e.SwitchAgent(1)
	case key.Matches(msg, e.keys.Accept):
		e.Commit()
		return true, nil
	case key.Matches(msg, e.keys.Cancel):
		e.Hide()
		return true, nil
	case key.Matches(msg, e.keys.Dismiss):
		e.Hide()
		return false, nil
	}

	switch msg.Type {
	case tea.KeyRunes, tea.KeySpace:
		e.Hide()
	}
	return false, nil
}

// Update applies generation results.
func (e *Engine) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(candidateMsg); ok {
		e.applyCandidate(msg)
	}
	return nil
}

func (e *Engine) applyCandidate(msg candidateMsg) {
	if msg.stateId != e.stateId {
		e.logger.Debug(
			"ghost discarding candidate",
			zap.Int("startStateId", msg.stateId),
			zap.Int("newStateId", e.stateId),
		)
		return
	}

	e.loading = false
	ok := msg.err == nil && msg.text != ""
	if ok {
		e.cache = append(e.cache, msg.text)
	} else {
		e.logger.Debug("ghost generation failed", zap.String("sessionId", e.sessionId), zap.Error(msg.err))
	}

	if e.cursor != msg.target {
		e.logger.Debug("ghost candidate cached without display",
			zap.Int("target", msg.target),
			zap.Int("cursor", e.cursor),
		)
		return
	}
	if ok {
		e.display(msg.text)
	} else {
		e.display(FailedText)
	}
}

// generate requests a candidate for the next cache slot and shows it there.
func (e *Engine) generate() tea.Cmd {
	agent, ok := e.Agent()
	if !ok {
		e.loading = false
		e.display(NoAgentText)
		return nil
	}

	e.loading = true
	target := len(e.cache)
	e.cursor = target
	e.display(e.generatingText())

	snapshot, ok := e.provider.Extract()
	if !ok {
		e.loading = false
		e.display(NoContextText)
		return nil
	}

	var (
		stateId     = e.stateId
		sessionId   = e.sessionId
		options     = e.options
		generator   = e.generator
		enricher    = e.enricher
		logger      = e.logger
		useNotes    = agent.UsesNoteQuery(options.NoteQuery) && enricher != nil
		formatGuide = agent.UsesFormatGuide(options.FormatGuide)
	)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), options.Timeout)
		defer cancel()

		var notes []string
		if useNotes {
			notes = relatedNotes(ctx, enricher, snapshot, options.EnrichTimeout, logger)
		}

		vars := prompt.Vars{
			Text:    prompt.TextFor(snapshot.Selection, snapshot.Before),
			Before:  snapshot.Before,
			After:   snapshot.After,
			Title:   snapshot.Title,
			Notes:   prompt.NotesSection(notes),
			Content: snapshot.Content,
		}
		text, err := generator.Generate(ctx, Request{
			Prompt:      prompt.Build(agent.Prompt, vars, formatGuide),
			Temperature: agent.Temperature,
		})

		logger.Debug("ghost generated candidate",
			zap.String("sessionId", sessionId),
			zap.String("agentId", agent.ID),
			zap.Int("stateId", stateId),
			zap.Int("target", target),
			zap.Int("notes", len(notes)),
			zap.Error(err),
		)
		return candidateMsg{stateId: stateId, target: target, text: text, err: err}
	}
}

// relatedNotes never fails: any enricher error means no notes.
func relatedNotes(ctx context.Context, enricher Enricher, snapshot Snapshot, timeout time.Duration, logger *zap.Logger) []string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	notes, err := enricher.RelatedNotes(ctx, snapshot)
	if err != nil {
		logger.Debug("ghost related notes unavailable", zap.Error(err))
		return nil
	}
	return notes
}

func (e *Engine) display(text string) {
	e.overlay.show(e.anchor, text)
}

func (e *Engine) generatingText() string {
	agent, ok := e.Agent()
	if !ok || agent.Icon == "" {
		return generatingSuffix
	}
	return agent.Icon + " " + generatingSuffix
}

func notice(text string) tea.Cmd {
	return func() tea.Msg {
		return NoticeMsg{Text: text}
	}
}
