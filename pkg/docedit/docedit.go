// Package docedit is a small block-structured text editor for bubbletea. Each
// block is a paragraph with a stable id. It can display one read-only ghost
// overlay at an arbitrary position and implements ghost.Surface.
package docedit

import (
	"errors"
	"strings"

	"github.com/atinylittleshell/ghostwrite/pkg/ghost"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rivo/uniseg"
)

// ErrAnchorDetached is returned when an anchor points at a block that is gone
// or at an offset outside the block.
var ErrAnchorDetached = errors.New("anchor is not attached to the document")

// ErrUnknownOverlay is returned for an overlay id that is not displayed.
var ErrUnknownOverlay = errors.New("overlay is not displayed")

const maxUndo = 100

// CursorGlyph marks the cursor in the rendered view.
const CursorGlyph = "▏"

// Internal messages for clipboard operations.
type (
	pasteMsg    string
	pasteErrMsg struct{ error }
)

// Block is one paragraph of the document.
type Block struct {
	ID   string
	Text string
}

// KeyMap is the set of editing bindings.
type KeyMap struct {
	CharacterForward        key.Binding
	CharacterBackward       key.Binding
	LineUp                  key.Binding
	LineDown                key.Binding
	LineStart               key.Binding
	LineEnd                 key.Binding
	SplitBlock              key.Binding
	DeleteCharacterBackward key.Binding
	DeleteCharacterForward  key.Binding
	Undo                    key.Binding
	Paste                   key.Binding
}

// DefaultKeyMap is the default set of key bindings.
var DefaultKeyMap = KeyMap{
	CharacterForward:        key.NewBinding(key.WithKeys("right", "ctrl+f")),
	CharacterBackward:       key.NewBinding(key.WithKeys("left", "ctrl+b")),
	LineUp:                  key.NewBinding(key.WithKeys("up", "ctrl+p")),
	LineDown:                key.NewBinding(key.WithKeys("down", "ctrl+n")),
	LineStart:               key.NewBinding(key.WithKeys("home", "ctrl+a")),
	LineEnd:                 key.NewBinding(key.WithKeys("end", "ctrl+e")),
	SplitBlock:              key.NewBinding(key.WithKeys("enter")),
	DeleteCharacterBackward: key.NewBinding(key.WithKeys("backspace", "ctrl+h")),
	DeleteCharacterForward:  key.NewBinding(key.WithKeys("delete", "ctrl+d")),
	Undo:                    key.NewBinding(key.WithKeys("ctrl+z")),
	Paste:                   key.NewBinding(key.WithKeys("ctrl+v")),
}

type overlay struct {
	id      ghost.OverlayID
	blockID string
	offset  int
	text    string
}

type snapshot struct {
	blocks []Block
	row    int
	col    int
}

// Model is the editor state. It is used through a pointer so the completion
// engine and the application share one document.
type Model struct {
	KeyMap KeyMap

	GhostStyle  lipgloss.Style
	CursorStyle lipgloss.Style
	Placeholder string

	blocks  []Block
	row     int
	col     int
	focused bool
	width   int
	dirty   bool

	overlay     *overlay
	nextOverlay ghost.OverlayID
	undo        []snapshot

	newID func() string

	// Err holds the last clipboard error, if any.
	Err error
}

// New creates an editor over blocks. Blocks without an id get one; an empty
// document gets a single empty block.
func New(blocks []Block) *Model {
	m := &Model{
		KeyMap: DefaultKeyMap,
		GhostStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Faint(true).
			Italic(true),
		CursorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")),
		newID: func() string { return uuid.NewString() },
	}
	m.SetBlocks(blocks)
	return m
}

// SetBlocks replaces the document, clears undo history and any overlay, and
// puts the cursor at the end of the last block.
func (m *Model) SetBlocks(blocks []Block) {
	m.blocks = make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.ID == "" {
			b.ID = m.newID()
		}
		m.blocks = append(m.blocks, b)
	}
	if len(m.blocks) == 0 {
		m.blocks = []Block{{ID: m.newID()}}
	}
	m.row = len(m.blocks) - 1
	m.col = runeLen(m.blocks[m.row].Text)
	m.overlay = nil
	m.undo = nil
	m.dirty = false
}

// Blocks returns a copy of the document.
func (m *Model) Blocks() []Block {
	return append([]Block(nil), m.blocks...)
}

// Value returns the document text with blocks separated by blank lines.
func (m *Model) Value() string {
	texts := make([]string, len(m.blocks))
	for i, b := range m.blocks {
		texts[i] = b.Text
	}
	return strings.Join(texts, "\n\n")
}

// Cursor returns the block index and rune offset of the cursor.
func (m *Model) Cursor() (int, int) {
	return m.row, m.col
}

// SetCursor moves the cursor, clamped to the document.
func (m *Model) SetCursor(row, col int) {
	m.row = clamp(row, 0, len(m.blocks)-1)
	m.col = clamp(col, 0, runeLen(m.blocks[m.row].Text))
}

func (m *Model) Focus()        { m.focused = true }
func (m *Model) Blur()         { m.focused = false }
func (m *Model) Focused() bool { return m.focused }

func (m *Model) SetWidth(width int) { m.width = width }

// Dirty reports whether the document changed since the last MarkSaved.
func (m *Model) Dirty() bool { return m.dirty }
func (m *Model) MarkSaved()  { m.dirty = false }

// OverlayText returns the text of the displayed overlay, if any.
func (m *Model) OverlayText() string {
	if m.overlay == nil {
		return ""
	}
	return m.overlay.text
}

// Update handles editing keys and clipboard messages.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pasteMsg:
		m.insertText(string(msg))
		return nil
	case pasteErrMsg:
		m.Err = msg
		return nil
	case tea.KeyMsg:
		if !m.focused {
			return nil
		}
		return m.handleKey(msg)
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.KeyMap.CharacterForward):
		m.moveRight()
	case key.Matches(msg, m.KeyMap.CharacterBackward):
		m.moveLeft()
	case key.Matches(msg, m.KeyMap.LineUp):
		if m.row > 0 {
			m.row--
			m.col = min(m.col, runeLen(m.blocks[m.row].Text))
		} else {
			m.col = 0
		}
	case key.Matches(msg, m.KeyMap.LineDown):
		if m.row < len(m.blocks)-1 {
			m.row++
			m.col = min(m.col, runeLen(m.blocks[m.row].Text))
		} else {
			m.col = runeLen(m.blocks[m.row].Text)
		}
	case key.Matches(msg, m.KeyMap.LineStart):
		m.col = 0
	case key.Matches(msg, m.KeyMap.LineEnd):
		m.col = runeLen(m.blocks[m.row].Text)
	case key.Matches(msg, m.KeyMap.SplitBlock):
		m.pushUndo()
		m.splitBlock()
	case key.Matches(msg, m.KeyMap.DeleteCharacterBackward):
		m.deleteBackward()
	case key.Matches(msg, m.KeyMap.DeleteCharacterForward):
		m.deleteForward()
	case key.Matches(msg, m.KeyMap.Undo):
		m.Undo()
	case key.Matches(msg, m.KeyMap.Paste):
		return Paste
	default:
		switch msg.Type {
		case tea.KeyRunes:
			if msg.Alt {
				return nil
			}
			m.insertText(string(msg.Runes))
		case tea.KeySpace:
			m.insertText(" ")
		}
	}
	return nil
}

// Paste is a command for pasting from the clipboard into the editor.
func Paste() tea.Msg {
	str, err := clipboard.ReadAll()
	if err != nil {
		return pasteErrMsg{err}
	}
	return pasteMsg(str)
}

// Undo restores the state before the last edit.
func (m *Model) Undo() bool {
	if len(m.undo) == 0 {
		return false
	}
	last := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.blocks = last.blocks
	m.row, m.col = last.row, last.col
	m.dirty = true
	return true
}

func (m *Model) pushUndo() {
	m.undo = append(m.undo, snapshot{
		blocks: append([]Block(nil), m.blocks...),
		row:    m.row,
		col:    m.col,
	})
	if len(m.undo) > maxUndo {
		m.undo = m.undo[len(m.undo)-maxUndo:]
	}
	m.dirty = true
}

// insertText inserts text at the cursor as one undoable edit. Newlines split
// the current block; blank segments are dropped.
func (m *Model) insertText(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return
	}
	m.pushUndo()

	segments := strings.Split(text, "\n")
	first := true
	for _, segment := range segments {
		if !first {
			if segment == "" {
				continue
			}
			m.splitBlock()
		}
		m.insertInBlock(segment)
		first = false
	}
}

func (m *Model) insertInBlock(s string) {
	runes := []rune(m.blocks[m.row].Text)
	ins := []rune(s)
	out := make([]rune, 0, len(runes)+len(ins))
	out = append(out, runes[:m.col]...)
	out = append(out, ins...)
	out = append(out, runes[m.col:]...)
	m.blocks[m.row].Text = string(out)
	m.col += len(ins)
}

func (m *Model) splitBlock() {
	runes := []rune(m.blocks[m.row].Text)
	head, tail := string(runes[:m.col]), string(runes[m.col:])
	m.blocks[m.row].Text = head

	next := Block{ID: m.newID(), Text: tail}
	m.blocks = append(m.blocks[:m.row+1], append([]Block{next}, m.blocks[m.row+1:]...)...)
	m.row++
	m.col = 0
}

func (m *Model) deleteBackward() {
	if m.col == 0 {
		if m.row == 0 {
			return
		}
		m.pushUndo()
		prev := m.blocks[m.row-1]
		m.col = runeLen(prev.Text)
		m.blocks[m.row-1].Text = prev.Text + m.blocks[m.row].Text
		m.blocks = append(m.blocks[:m.row], m.blocks[m.row+1:]...)
		m.row--
		return
	}
	m.pushUndo()
	start := m.previousBoundary()
	runes := []rune(m.blocks[m.row].Text)
	m.blocks[m.row].Text = string(runes[:start]) + string(runes[m.col:])
	m.col = start
}

func (m *Model) deleteForward() {
	runes := []rune(m.blocks[m.row].Text)
	if m.col >= len(runes) {
		if m.row >= len(m.blocks)-1 {
			return
		}
		m.pushUndo()
		m.blocks[m.row].Text += m.blocks[m.row+1].Text
		m.blocks = append(m.blocks[:m.row+1], m.blocks[m.row+2:]...)
		return
	}
	m.pushUndo()
	end := m.nextBoundary()
	m.blocks[m.row].Text = string(runes[:m.col]) + string(runes[end:])
}

func (m *Model) moveRight() {
	if m.col < runeLen(m.blocks[m.row].Text) {
		m.col = m.nextBoundary()
		return
	}
	if m.row < len(m.blocks)-1 {
		m.row++
		m.col = 0
	}
}

func (m *Model) moveLeft() {
	if m.col > 0 {
		m.col = m.previousBoundary()
		return
	}
	if m.row > 0 {
		m.row--
		m.col = runeLen(m.blocks[m.row].Text)
	}
}

// nextBoundary returns the rune offset after the grapheme cluster at the cursor.
func (m *Model) nextBoundary() int {
	rest := string([]rune(m.blocks[m.row].Text)[m.col:])
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
	return m.col + max(1, runeLen(cluster))
}

// previousBoundary returns the rune offset where the grapheme cluster before
// the cursor starts.
func (m *Model) previousBoundary() int {
	head := string([]rune(m.blocks[m.row].Text)[:m.col])
	last := 0
	offset := 0
	state := -1
	for len(head) > 0 {
		var cluster string
		cluster, head, _, state = uniseg.FirstGraphemeClusterInString(head, state)
		last = offset
		offset += runeLen(cluster)
	}
	return last
}

// View renders the document, the cursor and the overlay, wrapped to width.
func (m *Model) View() string {
	if m.Placeholder != "" && len(m.blocks) == 1 && m.blocks[0].Text == "" && m.overlay == nil && !m.focused {
		return m.GhostStyle.Render(m.Placeholder)
	}

	lines := make([]string, len(m.blocks))
	for i, b := range m.blocks {
		lines[i] = m.renderBlock(i, b)
	}
	out := strings.Join(lines, "\n")
	if m.width > 0 {
		out = wordwrap.String(out, m.width)
	}
	return out
}

func (m *Model) renderBlock(idx int, b Block) string {
	runes := []rune(b.Text)

	cursorAt := -1
	if m.focused && idx == m.row {
		cursorAt = m.col
	}
	overlayAt := -1
	if m.overlay != nil && m.overlay.blockID == b.ID {
		overlayAt = m.overlay.offset
	}

	var sb strings.Builder
	for i := 0; i <= len(runes); i++ {
		if i == cursorAt {
			sb.WriteString(m.CursorStyle.Render(CursorGlyph))
		}
		if i == overlayAt {
			sb.WriteString(m.GhostStyle.Render(m.overlay.text))
		}
		if i < len(runes) {
			sb.WriteRune(runes[i])
		}
	}
	return sb.String()
}

func runeLen(s string) int {
	return len([]rune(s))
}

func clamp(v, low, high int) int {
	if high < low {
		low, high = high, low
	}
	return min(high, max(low, v))
}
