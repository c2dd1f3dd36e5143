package agents

// Agent is a named prompt template plus the metadata the picker and the
// overlay placeholder need.
type Agent struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Icon        string   `yaml:"icon"`
	Prompt      string   `yaml:"prompt"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	Enabled     bool     `yaml:"enabled"`

	// NoteQuery and FormatGuide opt a single agent out of (or into) prompt
	// augmentation. nil follows the global settings.
	NoteQuery   *bool `yaml:"note_query,omitempty"`
	FormatGuide *bool `yaml:"format_guide,omitempty"`
}

// UsesNoteQuery reports whether related-note retrieval may run for this agent
// given the global toggle.
func (a Agent) UsesNoteQuery(global bool) bool {
	if a.NoteQuery != nil {
		return global && *a.NoteQuery
	}
	return global
}

// UsesFormatGuide reports whether the format guide is appended for this agent
// given the global toggle.
func (a Agent) UsesFormatGuide(global bool) bool {
	if a.FormatGuide != nil {
		return global && *a.FormatGuide
	}
	return global
}

// SearchText is the text the agent picker matches queries against.
func (a Agent) SearchText() string {
	text := a.Name + " " + a.ID
	for _, tag := range a.Tags {
		text += " " + tag
	}
	for _, keyword := range a.Keywords {
		text += " " + keyword
	}
	return text
}

const DefaultAgentID = "continue"

// Defaults returns the built-in agent set.
func Defaults() []Agent {
	return []Agent{
		{
			ID:          "continue",
			Name:        "Continue",
			Icon:        "✍️",
			Prompt:      "Continue the following text right where it stops. Output only the continuation.\n\n{{before}}█\n\nRequirements: start writing at the █ mark, stay coherent with what came before, output one or two sentences and nothing else.",
			Description: "Continue writing from the cursor",
			Tags:        []string{"writing"},
			Keywords:    []string{"continue", "write", "next"},
			Enabled:     true,
		},
		{
			ID:          "polish",
			Name:        "Polish",
			Icon:        "✨",
			Prompt:      "Polish the following text so it reads more fluently while keeping its meaning:\n\n{{text}}\n\nOutput only the polished text.",
			Description: "Improve wording and flow",
			Tags:        []string{"writing"},
			Keywords:    []string{"polish", "rewrite", "improve"},
			Enabled:     true,
		},
		{
			ID:          "summarize",
			Name:        "Summarize",
			Icon:        "📝",
			Prompt:      "Summarize the key points of the following content:\n\n{{text}}\n\nKeep it short and list only the core points.",
			Description: "Extract the key points",
			Tags:        []string{"reading"},
			Keywords:    []string{"summarize", "summary", "tldr"},
			Enabled:     true,
		},
		{
			ID:          "translate",
			Name:        "Translate",
			Icon:        "🌐",
			Prompt:      "Translate the following content (Chinese to English, anything else to Chinese):\n\n{{text}}\n\nOutput only the translation.",
			Description: "Translate between Chinese and English",
			Tags:        []string{"translation"},
			Keywords:    []string{"translate", "language"},
			Enabled:     true,
		},
		{
			ID:          "explain",
			Name:        "Explain",
			Icon:        "💡",
			Prompt:      "Explain the following content:\n\n{{text}}\n\nUse plain language, one to three sentences.",
			Description: "Explain a concept or passage",
			Tags:        []string{"learning"},
			Keywords:    []string{"explain", "what is", "meaning"},
			Enabled:     true,
		},
		{
			ID:          "qa",
			Name:        "Q&A",
			Icon:        "❓",
			Prompt:      "Answer the question: {{text}}\n\nAnswer directly and precisely in one to three sentences.",
			Description: "Answer a question",
			Tags:        []string{"questions"},
			Keywords:    []string{"question", "answer", "qa"},
			Enabled:     true,
		},
	}
}
