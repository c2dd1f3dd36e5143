package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, Default().TriggerKey, s.TriggerKey)
	assert.Equal(t, 300*time.Millisecond, s.DoubleTapDelay)
	assert.Equal(t, ScopeBlocks, s.Context.Scope)
	assert.Equal(t, 60*time.Second, s.Generation.Timeout)
	assert.Len(t, s.Agents, 6)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `double_tap_delay: 450ms
context:
  scope: current
augment:
  format_guide: true
generation:
  model: llama3
agents:
  - id: only
    name: Only
    prompt: "{{text}}"
    enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 450*time.Millisecond, s.DoubleTapDelay)
	assert.Equal(t, ScopeCurrent, s.Context.Scope)
	assert.Equal(t, 3, s.Context.BeforeBlocks, "unset nested keys keep defaults")
	assert.True(t, s.FormatGuideEnabled())
	assert.True(t, s.NoteQueryEnabled())
	assert.Equal(t, "llama3", s.Generation.Model)
	assert.Equal(t, "ollama", s.Generation.Provider)
	require.Len(t, s.Agents, 1, "agent lists replace the defaults")
	assert.Equal(t, "only", s.Agents[0].ID)
}

func TestLoadNormalizesInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "trigger_key: \"  Ctrl+K \"\ncontext:\n  scope: galaxy\n  before_blocks: -2\naugment:\n  limit: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "ctrl+k", s.TriggerKey)
	assert.Equal(t, ScopeBlocks, s.Context.Scope)
	assert.Equal(t, 0, s.Context.BeforeBlocks)
	assert.Equal(t, 5, s.Augment.Limit)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("context: [oops"), 0o644))

	s, err := Load(path, zap.NewNop())
	assert.Error(t, err)
	assert.Equal(t, Default().TriggerKey, s.TriggerKey)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GHOSTWRITE_API_KEY", "sk-test")
	t.Setenv("GHOSTWRITE_DOUBLE_TAP_DELAY_MS", "250")
	t.Setenv("GHOSTWRITE_TEMPERATURE", "0.4")
	t.Setenv("GHOSTWRITE_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("GHOSTWRITE_NOTE_QUERY", "false")

	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "sk-test", s.Generation.APIKey)
	assert.Equal(t, 250*time.Millisecond, s.DoubleTapDelay)
	require.NotNil(t, s.Generation.Temperature)
	assert.InDelta(t, 0.4, *s.Generation.Temperature, 1e-9)
	assert.Equal(t, 60*time.Second, s.Generation.Timeout, "bad values fall back to defaults")
	assert.False(t, s.Augment.NoteQuery)
}

func TestSaveAndReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	custom := Default()
	custom.DefaultAgent = "polish"
	custom.DoubleTapDelay = 500 * time.Millisecond
	require.NoError(t, Save(path, custom))

	loaded, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "polish", loaded.DefaultAgent)
	assert.Equal(t, 500*time.Millisecond, loaded.DoubleTapDelay)

	require.NoError(t, Reset(path))
	loaded, err = Load(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Default().DefaultAgent, loaded.DefaultAgent)
}

func TestWatcherPublishesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_agent: continue\n"), 0o644))

	logger := zap.NewNop()
	w, err := Watch(path, nil, func() (Settings, error) { return Load(path, logger) }, logger)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(path, []byte("default_agent: polish\n"), 0o644))

	select {
	case msg := <-w.Changes():
		assert.Equal(t, "polish", msg.Settings.DefaultAgent)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a settings change")
	}
}
