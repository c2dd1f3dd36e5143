package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     Vars
		expected string
	}{
		{
			name:     "title and text",
			template: "Hello {{title}}, {{text}}!",
			vars:     Vars{Title: "Doc", Text: "world"},
			expected: "Hello Doc, world!",
		},
		{
			name:     "missing text renders empty",
			template: "Hello {{title}}, {{text}}!",
			vars:     Vars{Title: "Doc"},
			expected: "Hello Doc, !",
		},
		{
			name:     "unknown placeholders stay verbatim",
			template: "{{before}}|{{cursor}}|{{after}}",
			vars:     Vars{Before: "a", After: "b"},
			expected: "a|{{cursor}}|b",
		},
		{
			name:     "repeated placeholders all replaced",
			template: "{{text}} and {{text}}",
			vars:     Vars{Text: "x"},
			expected: "x and x",
		},
		{
			name:     "substituted values are not re-expanded",
			template: "{{text}}",
			vars:     Vars{Text: "{{title}}", Title: "T"},
			expected: "{{title}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.template, tt.vars))
		})
	}
}

func TestTextFor(t *testing.T) {
	assert.Equal(t, "picked", TextFor("picked", "before"))
	assert.Equal(t, "before", TextFor("", "before"))

	long := strings.Repeat("a", 150) + strings.Repeat("界", 100)
	tail := TextFor("", long)
	assert.Len(t, []rune(tail), 200)
	assert.True(t, strings.HasSuffix(tail, "界"))
}

func TestBuild(t *testing.T) {
	notes := NotesSection([]string{"[Doc] one", "[Other] two"})
	assert.Equal(t, "Related notes:\n- [Doc] one\n- [Other] two", notes)

	withPlaceholder := Build("Context: {{notes}}\nGo", Vars{Notes: notes}, false)
	assert.Equal(t, "Context: "+notes+"\nGo", withPlaceholder)

	appended := Build("Go", Vars{Notes: notes}, false)
	assert.Equal(t, "Go\n\n"+notes, appended)

	plain := Build("Go", Vars{}, false)
	assert.Equal(t, "Go", plain)

	surrounding := Build("Go", Vars{Before: "b", After: "a", Content: "earlier\n\nba"}, false)
	assert.Equal(t, "Go\n\nSurrounding text:\nearlier\n\nba", surrounding)

	inline := Build("Doc: {{content}}", Vars{Content: "earlier"}, false)
	assert.Equal(t, "Doc: earlier", inline)

	onlyCurrent := Build("Go", Vars{Before: "b", After: "a", Content: "ba"}, false)
	assert.Equal(t, "Go", onlyCurrent)

	guided := Build("Go", Vars{}, true)
	assert.True(t, strings.HasPrefix(guided, "Go\n\n## Note format"))
}

func TestNotesSectionEmpty(t *testing.T) {
	assert.Equal(t, "", NotesSection(nil))
}

func TestCleanReferences(t *testing.T) {
	valid := "0d8f3b8e-4f6a-4c1e-9b7d-2f1e6a3c5b90"

	input := "See ((" + valid + " \"this\")) and ((made-up \"that\")) plus {{" + valid + "}} and {{nope}}."
	expected := "See ((" + valid + " \"this\")) and  plus {{" + valid + "}} and ."
	assert.Equal(t, expected, CleanReferences(input))

	assert.Equal(t, "plain text", CleanReferences("plain text"))
}

func TestReferencedIDs(t *testing.T) {
	a := "0d8f3b8e-4f6a-4c1e-9b7d-2f1e6a3c5b90"
	b := "6b1f2c3d-1111-4222-8333-944455556666"
	content := BlockRef(a, "x") + " text " + BlockRef(b, "") + " ((bad))"

	assert.Equal(t, []string{a, b}, ReferencedIDs(content))
	assert.True(t, IsValidBlockID(a))
	assert.False(t, IsValidBlockID("bad"))
}
