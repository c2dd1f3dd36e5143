package agents

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// fileFrontmatter is the YAML header of an agent markdown file. The markdown
// body below the header becomes the prompt template.
type fileFrontmatter struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Icon        string   `yaml:"icon"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Keywords    []string `yaml:"keywords"`
	Temperature *float64 `yaml:"temperature"`
	Enabled     *bool    `yaml:"enabled"`
	NoteQuery   *bool    `yaml:"note_query"`
	FormatGuide *bool    `yaml:"format_guide"`
}

// ParseFile parses a single agent markdown file.
func ParseFile(filePath string) (Agent, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return Agent{}, fmt.Errorf("failed to read agent file %s: %w", filePath, err)
	}
	return parseAgentMarkdown(filePath, string(content))
}

func parseAgentMarkdown(filePath string, content string) (Agent, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	if !strings.HasPrefix(content, "---\n") {
		return Agent{}, fmt.Errorf("agent file must start with YAML frontmatter: %s", filePath)
	}

	endIdx := strings.Index(content[4:], "\n---")
	if endIdx == -1 {
		return Agent{}, fmt.Errorf("invalid YAML frontmatter in file: %s", filePath)
	}
	endIdx += 4

	frontmatter := content[4:endIdx]
	body := strings.TrimSpace(strings.TrimPrefix(content[endIdx+4:], "\n"))

	var fm fileFrontmatter
	if err := yaml.Unmarshal([]byte(frontmatter), &fm); err != nil {
		return Agent{}, fmt.Errorf("failed to parse YAML frontmatter in %s: %w", filePath, err)
	}

	if fm.ID == "" {
		fm.ID = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	if body == "" {
		return Agent{}, fmt.Errorf("agent %s has an empty prompt in %s", fm.ID, filePath)
	}

	name := fm.Name
	if name == "" {
		name = fm.ID
	}
	enabled := true
	if fm.Enabled != nil {
		enabled = *fm.Enabled
	}

	return Agent{
		ID:          fm.ID,
		Name:        name,
		Icon:        fm.Icon,
		Prompt:      body,
		Description: fm.Description,
		Tags:        fm.Tags,
		Keywords:    fm.Keywords,
		Temperature: fm.Temperature,
		Enabled:     enabled,
		NoteQuery:   fm.NoteQuery,
		FormatGuide: fm.FormatGuide,
	}, nil
}

// LoadDir reads every *.md agent file in dir, sorted by file name. A missing
// directory yields no agents. Files that fail to parse are logged and skipped.
func LoadDir(dir string, logger *zap.Logger) []Agent {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read agents directory", zap.String("dir", dir), zap.Error(err))
		}
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var result []Agent
	for _, name := range names {
		agent, err := ParseFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("skipping invalid agent file", zap.String("file", name), zap.Error(err))
			continue
		}
		result = append(result, agent)
	}
	return result
}
