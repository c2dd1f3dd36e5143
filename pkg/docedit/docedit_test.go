package docedit

import (
	"fmt"
	"testing"

	"github.com/atinylittleshell/ghostwrite/pkg/ghost"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(blocks ...string) *Model {
	seq := 0
	m := New(nil)
	m.newID = func() string {
		seq++
		return fmt.Sprintf("b%d", seq)
	}
	list := make([]Block, len(blocks))
	for i, text := range blocks {
		list[i] = Block{Text: text}
	}
	m.SetBlocks(list)
	m.Focus()
	return m
}

func typeString(m *Model, s string) {
	for _, r := range s {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewCreatesSingleEmptyBlock(t *testing.T) {
	m := New(nil)
	blocks := m.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, "", blocks[0].Text)
	_, err := uuid.Parse(blocks[0].ID)
	assert.NoError(t, err)
}

func TestTypingAndSplitting(t *testing.T) {
	m := newTestModel()
	typeString(m, "hello world")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeString(m, "next")

	blocks := m.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "hello world", blocks[0].Text)
	assert.Equal(t, "next", blocks[1].Text)
	assert.NotEqual(t, blocks[0].ID, blocks[1].ID)
	assert.Equal(t, "hello world\n\nnext", m.Value())
	assert.True(t, m.Dirty())
}

func TestBackspaceMergesBlocks(t *testing.T) {
	m := newTestModel("ab", "cd")
	m.SetCursor(1, 0)
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	blocks := m.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, "abcd", blocks[0].Text)
	row, col := m.Cursor()
	assert.Equal(t, 0, row)
	assert.Equal(t, 2, col)
}

func TestDeleteForwardMergesBlocks(t *testing.T) {
	m := newTestModel("ab", "cd")
	m.SetCursor(0, 2)
	m.Update(tea.KeyMsg{Type: tea.KeyDelete})
	assert.Equal(t, "abcd", m.Value())
}

func TestGraphemeAwareMovement(t *testing.T) {
	m := newTestModel("xe\u0301")
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	_, col := m.Cursor()
	assert.Equal(t, 1, col, "combining mark moves with its base")

	m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "x", m.Value())
}

func TestUndo(t *testing.T) {
	m := newTestModel("start")
	typeString(m, "!")
	assert.Equal(t, "start!", m.Value())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlZ})
	assert.Equal(t, "start", m.Value())
	assert.False(t, m.Undo(), "history is empty")
}

func TestPasteMessage(t *testing.T) {
	m := newTestModel("a")
	m.Update(pasteMsg("b\nc"))

	blocks := m.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "ab", blocks[0].Text)
	assert.Equal(t, "c", blocks[1].Text)
}

func TestBlurredEditorIgnoresKeys(t *testing.T) {
	m := newTestModel("a")
	m.Blur()
	typeString(m, "b")
	assert.Equal(t, "a", m.Value())
}

func TestOverlayLifecycle(t *testing.T) {
	m := newTestModel("It was a dark")
	anchor, ok := m.CursorAnchor()
	require.True(t, ok)
	assert.Equal(t, ghost.Anchor{BlockID: "b1", Offset: 13}, anchor)

	m.SetCursor(0, 0)
	id, err := m.InsertOverlay(anchor, " and stormy night.")
	require.NoError(t, err)
	require.NoError(t, m.CollapseSelectionBefore(id))

	row, col := m.Cursor()
	assert.Equal(t, 0, row)
	assert.Equal(t, 13, col)
	assert.Equal(t, " and stormy night.", m.OverlayText())
	assert.Contains(t, m.View(), "stormy night.")
	assert.Equal(t, "It was a dark", m.Value(), "overlay text is not document text")

	m.RemoveOverlay(id)
	assert.Equal(t, "", m.OverlayText())
	assert.NotContains(t, m.View(), "stormy")
	assert.ErrorIs(t, m.CollapseSelectionBefore(id), ErrUnknownOverlay)
}

func TestInsertOverlayReplacesPrevious(t *testing.T) {
	m := newTestModel("abc")
	anchor, _ := m.CursorAnchor()

	first, err := m.InsertOverlay(anchor, "one")
	require.NoError(t, err)
	second, err := m.InsertOverlay(anchor, "two")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	m.RemoveOverlay(first)
	assert.Equal(t, "two", m.OverlayText(), "stale ids are ignored")
}

func TestInsertOverlayDetachedAnchor(t *testing.T) {
	m := newTestModel("abc")

	_, err := m.InsertOverlay(ghost.Anchor{BlockID: "missing", Offset: 0}, "x")
	assert.ErrorIs(t, err, ErrAnchorDetached)

	_, err = m.InsertOverlay(ghost.Anchor{BlockID: "b1", Offset: 4}, "x")
	assert.ErrorIs(t, err, ErrAnchorDetached)
	assert.Equal(t, "", m.OverlayText())
}

func TestInsertCommittedTextIsUndoable(t *testing.T) {
	m := newTestModel("first", "It was a dark")
	anchor := ghost.Anchor{BlockID: "b2", Offset: 13}
	m.SetCursor(0, 0)

	require.NoError(t, m.InsertCommittedText(anchor, " and stormy night.\nThe end."))

	blocks := m.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, "It was a dark and stormy night.", blocks[1].Text)
	assert.Equal(t, "The end.", blocks[2].Text)

	require.True(t, m.Undo())
	assert.Equal(t, "first\n\nIt was a dark", m.Value())
}

func TestInsertCommittedTextDetached(t *testing.T) {
	m := newTestModel("abc")
	err := m.InsertCommittedText(ghost.Anchor{BlockID: "gone"}, "x")
	assert.ErrorIs(t, err, ErrAnchorDetached)
	assert.Equal(t, "abc", m.Value())
}
