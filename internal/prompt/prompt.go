// Package prompt renders agent prompt templates against a document context.
package prompt

import (
	"strings"
)

// Vars are the values substituted into a template. Missing values render as
// the empty string.
type Vars struct {
	Text    string
	Before  string
	After   string
	Title   string
	Notes   string
	Content string
}

const (
	placeholderText    = "{{text}}"
	placeholderBefore  = "{{before}}"
	placeholderAfter   = "{{after}}"
	placeholderTitle   = "{{title}}"
	placeholderNotes   = "{{notes}}"
	placeholderContent = "{{content}}"
)

// textTailRunes bounds {{text}} when there is no selection.
const textTailRunes = 200

// Render replaces the known placeholders. Unknown placeholders are left
// verbatim.
func Render(template string, vars Vars) string {
	return strings.NewReplacer(
		placeholderText, vars.Text,
		placeholderBefore, vars.Before,
		placeholderAfter, vars.After,
		placeholderTitle, vars.Title,
		placeholderNotes, vars.Notes,
		placeholderContent, vars.Content,
	).Replace(template)
}

// TextFor picks the {{text}} value: the selection when there is one, else the
// tail of the text before the cursor.
func TextFor(selection string, before string) string {
	if selection != "" {
		return selection
	}
	runes := []rune(before)
	if len(runes) > textTailRunes {
		return string(runes[len(runes)-textTailRunes:])
	}
	return before
}

// Build renders template and attaches the augmentation sections. Surrounding
// text and notes go to {{content}} and {{notes}} when the template asks for
// them, otherwise they are appended.
func Build(template string, vars Vars, formatGuide bool) string {
	var b strings.Builder
	b.WriteString(Render(template, vars))

	if section := ContentSection(vars.Content, vars.Before+vars.After); section != "" &&
		!strings.Contains(template, placeholderContent) {
		b.WriteString("\n\n")
		b.WriteString(section)
	}

	if vars.Notes != "" && !strings.Contains(template, placeholderNotes) {
		b.WriteString("\n\n")
		b.WriteString(vars.Notes)
	}
	if formatGuide {
		b.WriteString("\n\n")
		b.WriteString(FormatGuide)
	}
	return b.String()
}

// ContentSection formats the surrounding text for a prompt. Nothing is added
// when it is only the current block.
func ContentSection(content string, current string) string {
	if strings.TrimSpace(content) == "" || content == current {
		return ""
	}
	return "Surrounding text:\n" + content
}

// NotesSection formats related notes for a prompt. No notes, no section.
func NotesSection(notes []string) string {
	if len(notes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Related notes:")
	for _, note := range notes {
		b.WriteString("\n- ")
		b.WriteString(note)
	}
	return b.String()
}
