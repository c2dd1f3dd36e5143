package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atinylittleshell/ghostwrite/internal/agents"
	"github.com/atinylittleshell/ghostwrite/internal/notes"
	"github.com/atinylittleshell/ghostwrite/pkg/docedit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewPaths(t *testing.T) {
	paths := NewPaths("/home/writer")
	assert.Equal(t, "/home/writer/.local/share/ghostwrite/notes.db", paths.NotesFile)
	assert.Equal(t, "/home/writer/.local/share/ghostwrite/ghostwrite.log", paths.LogFile)
	assert.Equal(t, "/home/writer/.config/ghostwrite/settings.yaml", paths.SettingsFile)
	assert.Equal(t, "/home/writer/.config/ghostwrite/.env", paths.EnvFile)
	assert.Equal(t, "/home/writer/.config/ghostwrite/agents", paths.AgentsDir)
}

func TestLoadSettingsAppendsFileAgents(t *testing.T) {
	dir := t.TempDir()
	agentsDir := filepath.Join(dir, "agents")
	require.NoError(t, os.MkdirAll(agentsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(agentsDir, "haiku.md"),
		[]byte("---\nname: Haiku\n---\nWrite a haiku about {{text}}."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(agentsDir, "continue.md"),
		[]byte("---\nname: Keep going\n---\nGo on: {{before}}"), 0o644))

	s, err := LoadSettings(filepath.Join(dir, "settings.yaml"), agentsDir, zap.NewNop())
	require.NoError(t, err)

	registry := agents.NewRegistry(s.Agents, s.DefaultAgent)
	haiku, ok := registry.Get("haiku")
	require.True(t, ok)
	assert.Equal(t, "Haiku", haiku.Name)

	continueAgent, ok := registry.Get(agents.DefaultAgentID)
	require.True(t, ok)
	assert.Equal(t, "Keep going", continueAgent.Name, "file agents replace built-ins with the same id")
}

func TestLoadSettingsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trigger_key: [\n"), 0o644))

	_, err := LoadSettings(path, t.TempDir(), zap.NewNop())
	assert.Error(t, err)
}

func TestDocumentSaver(t *testing.T) {
	store, err := notes.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	doc, _, created, err := store.OpenDocument("Draft")
	require.NoError(t, err)
	require.True(t, created)

	saver := NewDocumentSaver(store, doc)
	blocks := []docedit.Block{{ID: "b1", Text: "It was a dark and stormy night."}, {ID: "b2", Text: "The end."}}
	require.NoError(t, saver.Save("Story", blocks))

	renamed, loaded, created, err := store.OpenDocument("Story")
	require.NoError(t, err)
	assert.False(t, created, "saving renamed the existing document")
	assert.Equal(t, doc.ID, renamed.ID)
	assert.Equal(t, blocks, ToEditorBlocks(loaded))

	require.NoError(t, saver.Save("", blocks[:1]))
	_, loaded, _, err = store.OpenDocument("Story")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}
