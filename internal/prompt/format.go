package prompt

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// FormatGuide describes the note markup the editor understands.
const FormatGuide = `## Note format

Pick whatever format suits the content and output text that can be inserted as is.

Inline: **bold** *italic* ~~strike~~ ` + "`code`" + ` #tag#
Structure: # to ###### headings, "- " bullets, "1. " numbered items, "- [ ] " tasks, "> " quotes.
Block reference: ((block-id "anchor text")), woven into the sentence.
Block embed: {{block-id}}

Only use block ids that appear in the related notes. Never invent one.`

var (
	blockRefRegex   = regexp.MustCompile(`\(\(([^)\s]+)(?:\s+"[^"]*")?\)\)`)
	blockEmbedRegex = regexp.MustCompile(`\{\{([^}]+)\}\}`)
)

// IsValidBlockID reports whether id is a well-formed block id.
func IsValidBlockID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// CleanReferences strips block references and embeds whose ids are malformed,
// which is what a model produces when it invents ids.
func CleanReferences(content string) string {
	content = blockRefRegex.ReplaceAllStringFunc(content, func(match string) string {
		id := blockRefRegex.FindStringSubmatch(match)[1]
		if IsValidBlockID(id) {
			return match
		}
		return ""
	})
	return blockEmbedRegex.ReplaceAllStringFunc(content, func(match string) string {
		inner := strings.TrimSpace(blockEmbedRegex.FindStringSubmatch(match)[1])
		if IsValidBlockID(inner) {
			return match
		}
		return ""
	})
}

// BlockRef formats a reference to a block.
func BlockRef(id string, anchor string) string {
	if anchor == "" {
		return "((" + id + "))"
	}
	return "((" + id + " \"" + anchor + "\"))"
}

// ReferencedIDs returns the ids of all well-formed block references in content.
func ReferencedIDs(content string) []string {
	var ids []string
	for _, match := range blockRefRegex.FindAllStringSubmatch(content, -1) {
		if IsValidBlockID(match[1]) {
			ids = append(ids, match[1])
		}
	}
	return ids
}
