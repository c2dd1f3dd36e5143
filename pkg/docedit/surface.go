package docedit

import (
	"github.com/atinylittleshell/ghostwrite/pkg/ghost"
)

var _ ghost.Surface = (*Model)(nil)

// CursorAnchor returns the cursor as a block id and rune offset.
func (m *Model) CursorAnchor() (ghost.Anchor, bool) {
	if len(m.blocks) == 0 {
		return ghost.Anchor{}, false
	}
	return ghost.Anchor{BlockID: m.blocks[m.row].ID, Offset: m.col}, true
}

// InsertOverlay shows text at anchor, replacing any overlay already shown.
func (m *Model) InsertOverlay(anchor ghost.Anchor, text string) (ghost.OverlayID, error) {
	if _, err := m.resolve(anchor); err != nil {
		return 0, err
	}
	m.nextOverlay++
	m.overlay = &overlay{
		id:      m.nextOverlay,
		blockID: anchor.BlockID,
		offset:  anchor.Offset,
		text:    text,
	}
	return m.nextOverlay, nil
}

func (m *Model) RemoveOverlay(id ghost.OverlayID) {
	if m.overlay != nil && m.overlay.id == id {
		m.overlay = nil
	}
}

// CollapseSelectionBefore puts the cursor right before the overlay.
func (m *Model) CollapseSelectionBefore(id ghost.OverlayID) error {
	if m.overlay == nil || m.overlay.id != id {
		return ErrUnknownOverlay
	}
	row, err := m.resolve(ghost.Anchor{BlockID: m.overlay.blockID, Offset: m.overlay.offset})
	if err != nil {
		return err
	}
	m.row = row
	m.col = m.overlay.offset
	return nil
}

// InsertCommittedText types text at anchor through the regular insert path,
// so a single undo removes it.
func (m *Model) InsertCommittedText(anchor ghost.Anchor, text string) error {
	row, err := m.resolve(anchor)
	if err != nil {
		return err
	}
	m.row = row
	m.col = anchor.Offset
	m.insertText(text)
	return nil
}

func (m *Model) resolve(anchor ghost.Anchor) (int, error) {
	for i, b := range m.blocks {
		if b.ID != anchor.BlockID {
			continue
		}
		if anchor.Offset < 0 || anchor.Offset > runeLen(b.Text) {
			return 0, ErrAnchorDetached
		}
		return i, nil
	}
	return 0, ErrAnchorDetached
}
