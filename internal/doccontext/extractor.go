// Package doccontext captures the text around the editor cursor.
package doccontext

import (
	"strings"

	"github.com/atinylittleshell/ghostwrite/internal/settings"
	"github.com/atinylittleshell/ghostwrite/pkg/docedit"
	"github.com/atinylittleshell/ghostwrite/pkg/ghost"
)

// Document is what the extractor reads from the editor.
type Document interface {
	Blocks() []docedit.Block
	Cursor() (row int, col int)
}

type Extractor struct {
	doc     Document
	title   func() string
	options settings.ContextOptions
}

var _ ghost.ContextProvider = (*Extractor)(nil)

func New(doc Document, title func() string, options settings.ContextOptions) *Extractor {
	if title == nil {
		title = func() string { return "" }
	}
	return &Extractor{doc: doc, title: title, options: options}
}

// SetScope applies to the next Extract.
func (e *Extractor) SetScope(options settings.ContextOptions) {
	e.options = options
}

// Extract snapshots the document at the cursor. Before and After come from the
// cursor's block; Content follows the configured scope.
func (e *Extractor) Extract() (ghost.Snapshot, bool) {
	blocks := e.doc.Blocks()
	if len(blocks) == 0 {
		return ghost.Snapshot{}, false
	}
	row, col := e.doc.Cursor()
	if row < 0 || row >= len(blocks) {
		return ghost.Snapshot{}, false
	}

	current := []rune(blocks[row].Text)
	col = min(max(col, 0), len(current))

	return ghost.Snapshot{
		BlockID: blocks[row].ID,
		Before:  string(current[:col]),
		After:   string(current[col:]),
		Title:   strings.TrimSpace(e.title()),
		Content: e.content(blocks, row),
	}, true
}

func (e *Extractor) content(blocks []docedit.Block, row int) string {
	var from, to int
	switch e.options.Scope {
	case settings.ScopeFull:
		from, to = 0, len(blocks)
	case settings.ScopeCurrent:
		from, to = row, row+1
	default:
		from = max(0, row-max(e.options.BeforeBlocks, 0))
		to = min(len(blocks), row+max(e.options.AfterBlocks, 0)+1)
	}

	texts := make([]string, 0, to-from)
	for _, b := range blocks[from:to] {
		texts = append(texts, b.Text)
	}
	return strings.Join(texts, "\n\n")
}
