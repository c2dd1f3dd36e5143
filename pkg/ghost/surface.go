// Package ghost shows generated text as an uncommitted overlay at the cursor
// of an editor. The user can cycle candidates, switch agents, commit or
// dismiss it.
package ghost

import (
	"context"

	"github.com/atinylittleshell/ghostwrite/internal/agents"
)

// Anchor is a position in the document: a block and a rune offset in it.
type Anchor struct {
	BlockID string
	Offset  int
}

// OverlayID identifies an overlay span inserted into a Surface.
type OverlayID int

// Surface is the part of the host editor the engine talks to.
type Surface interface {
	// CursorAnchor returns the collapsed cursor position, or false if the
	// editor has no cursor in the document.
	CursorAnchor() (Anchor, bool)
	// InsertOverlay displays read-only text at anchor. On failure nothing is
	// left behind.
	InsertOverlay(anchor Anchor, text string) (OverlayID, error)
	// RemoveOverlay removes the overlay. Unknown ids are ignored.
	RemoveOverlay(id OverlayID)
	// CollapseSelectionBefore moves the cursor to just before the overlay.
	CollapseSelectionBefore(id OverlayID) error
	// InsertCommittedText inserts text at anchor as a regular, undoable edit.
	InsertCommittedText(anchor Anchor, text string) error
}

// Snapshot is the document context captured at one moment.
type Snapshot struct {
	BlockID   string
	Before    string
	After     string
	Selection string
	Title     string
	// Content is the surrounding text for the configured scope.
	Content string
}

type ContextProvider interface {
	Extract() (Snapshot, bool)
}

// Request is one generation call.
type Request struct {
	Prompt string
	// Temperature overrides the generator's configured temperature when set.
	Temperature *float64
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Enricher finds notes related to the snapshot. It is best effort: errors
// only mean the prompt goes out without notes.
type Enricher interface {
	RelatedNotes(ctx context.Context, snapshot Snapshot) ([]string, error)
}

// AgentSource resolves a trigger's agent ids to enabled agents. An empty id
// list means the default agent.
type AgentSource interface {
	Resolve(ids []string) []agents.Agent
}

// Trigger starts a session. Nil AgentIDs selects the default agent.
type Trigger struct {
	AgentIDs []string
}

// NoticeMsg is a short message for the user about a trigger that could not
// start a session.
type NoticeMsg struct {
	Text string
}
