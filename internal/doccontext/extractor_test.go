package doccontext

import (
	"testing"

	"github.com/atinylittleshell/ghostwrite/internal/settings"
	"github.com/atinylittleshell/ghostwrite/pkg/docedit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoc struct {
	blocks   []docedit.Block
	row, col int
}

func (d *fakeDoc) Blocks() []docedit.Block { return d.blocks }
func (d *fakeDoc) Cursor() (int, int)      { return d.row, d.col }

func sampleDoc(row, col int) *fakeDoc {
	return &fakeDoc{
		blocks: []docedit.Block{
			{ID: "b0", Text: "zero"},
			{ID: "b1", Text: "one"},
			{ID: "b2", Text: "It was a dark night"},
			{ID: "b3", Text: "three"},
			{ID: "b4", Text: "four"},
		},
		row: row,
		col: col,
	}
}

func TestExtractSplitsCurrentBlock(t *testing.T) {
	e := New(sampleDoc(2, 13), func() string { return "  Story " }, settings.ContextOptions{Scope: settings.ScopeCurrent})

	snapshot, ok := e.Extract()
	require.True(t, ok)
	assert.Equal(t, "b2", snapshot.BlockID)
	assert.Equal(t, "It was a dark", snapshot.Before)
	assert.Equal(t, " night", snapshot.After)
	assert.Equal(t, "Story", snapshot.Title)
	assert.Equal(t, "It was a dark night", snapshot.Content)
	assert.Empty(t, snapshot.Selection)
}

func TestExtractScopes(t *testing.T) {
	tests := []struct {
		name    string
		options settings.ContextOptions
		want    string
	}{
		{
			name:    "full document",
			options: settings.ContextOptions{Scope: settings.ScopeFull},
			want:    "zero\n\none\n\nIt was a dark night\n\nthree\n\nfour",
		},
		{
			name:    "one block each side",
			options: settings.ContextOptions{Scope: settings.ScopeBlocks, BeforeBlocks: 1, AfterBlocks: 1},
			want:    "one\n\nIt was a dark night\n\nthree",
		},
		{
			name:    "counts clamp to the document",
			options: settings.ContextOptions{Scope: settings.ScopeBlocks, BeforeBlocks: 10, AfterBlocks: 0},
			want:    "zero\n\none\n\nIt was a dark night",
		},
		{
			name:    "current block",
			options: settings.ContextOptions{Scope: settings.ScopeCurrent},
			want:    "It was a dark night",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot, ok := New(sampleDoc(2, 0), nil, tt.options).Extract()
			require.True(t, ok)
			assert.Equal(t, tt.want, snapshot.Content)
		})
	}
}

func TestSetScopeAppliesToNextExtract(t *testing.T) {
	e := New(sampleDoc(0, 0), nil, settings.ContextOptions{Scope: settings.ScopeCurrent})
	snapshot, _ := e.Extract()
	assert.Equal(t, "zero", snapshot.Content)

	e.SetScope(settings.ContextOptions{Scope: settings.ScopeBlocks, AfterBlocks: 1})
	snapshot, _ = e.Extract()
	assert.Equal(t, "zero\n\none", snapshot.Content)
}

func TestExtractUnavailable(t *testing.T) {
	_, ok := New(&fakeDoc{}, nil, settings.ContextOptions{}).Extract()
	assert.False(t, ok)

	_, ok = New(sampleDoc(9, 0), nil, settings.ContextOptions{}).Extract()
	assert.False(t, ok)
}

func TestExtractFromEditor(t *testing.T) {
	editor := docedit.New([]docedit.Block{{ID: "a", Text: "hello"}})
	snapshot, ok := New(editor, nil, settings.Default().Context).Extract()
	require.True(t, ok)
	assert.Equal(t, "a", snapshot.BlockID)
	assert.Equal(t, "hello", snapshot.Before)
}
