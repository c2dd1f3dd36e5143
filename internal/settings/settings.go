package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/atinylittleshell/ghostwrite/internal/agents"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type ContextScope string

const (
	ScopeFull    ContextScope = "full"
	ScopeBlocks  ContextScope = "blocks"
	ScopeCurrent ContextScope = "current"
)

type Settings struct {
	TriggerKey     string         `yaml:"trigger_key"`
	DoubleTapDelay time.Duration  `yaml:"double_tap_delay"`
	DefaultAgent   string         `yaml:"default_agent"`
	Context        ContextOptions `yaml:"context"`
	Augment        AugmentOptions `yaml:"augment"`
	Generation     Generation     `yaml:"generation"`
	Agents         []agents.Agent `yaml:"agents"`
}

type ContextOptions struct {
	Scope        ContextScope `yaml:"scope"`
	BeforeBlocks int          `yaml:"before_blocks"`
	AfterBlocks  int          `yaml:"after_blocks"`
}

type AugmentOptions struct {
	Enabled     bool          `yaml:"enabled"`
	NoteQuery   bool          `yaml:"note_query"`
	Backlinks   bool          `yaml:"backlinks"`
	FormatGuide bool          `yaml:"format_guide"`
	Limit       int           `yaml:"limit"`
	Timeout     time.Duration `yaml:"timeout"`
}

type Generation struct {
	Provider    string            `yaml:"provider"`
	BaseURL     string            `yaml:"base_url"`
	APIKey      string            `yaml:"api_key"`
	Model       string            `yaml:"model"`
	Temperature *float64          `yaml:"temperature,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Timeout     time.Duration     `yaml:"timeout"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		TriggerKey:     "ctrl+g",
		DoubleTapDelay: 300 * time.Millisecond,
		DefaultAgent:   agents.DefaultAgentID,
		Context: ContextOptions{
			Scope:        ScopeBlocks,
			BeforeBlocks: 3,
			AfterBlocks:  3,
		},
		Augment: AugmentOptions{
			Enabled:     true,
			NoteQuery:   true,
			Backlinks:   true,
			FormatGuide: false,
			Limit:       5,
			Timeout:     3 * time.Second,
		},
		Generation: Generation{
			Provider: "ollama",
			Model:    "qwen2.5",
			Timeout:  60 * time.Second,
		},
		Agents: agents.Defaults(),
	}
}

// NoteQueryEnabled folds the master switch into the note query toggle.
func (s Settings) NoteQueryEnabled() bool {
	return s.Augment.Enabled && (s.Augment.NoteQuery || s.Augment.Backlinks)
}

// FormatGuideEnabled folds the master switch into the format guide toggle.
func (s Settings) FormatGuideEnabled() bool {
	return s.Augment.Enabled && s.Augment.FormatGuide
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string, logger *zap.Logger) (Settings, error) {
	s := Default()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, &s); err != nil {
			return Default(), fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		logger.Debug("settings file not found, using defaults", zap.String("path", path))
	default:
		return Default(), fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	applyEnv(&s, logger)
	s.normalize()
	return s, nil
}

// Save writes s to path as YAML, creating the directory if needed.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	content, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", path, err)
	}
	return nil
}

// Reset overwrites path with the defaults.
func Reset(path string) error {
	return Save(path, Default())
}

// LoadEnvFile loads KEY=VALUE pairs from an .env file into the process
// environment without overriding variables that are already set.
func LoadEnvFile(path string, logger *zap.Logger) {
	if err := godotenv.Load(path); err != nil {
		logger.Debug("no .env file loaded", zap.String("path", path), zap.Error(err))
	}
}

func applyEnv(s *Settings, logger *zap.Logger) {
	if v := os.Getenv("GHOSTWRITE_TRIGGER_KEY"); v != "" {
		s.TriggerKey = v
	}
	if v := os.Getenv("GHOSTWRITE_DOUBLE_TAP_DELAY_MS"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			logger.Debug("error parsing GHOSTWRITE_DOUBLE_TAP_DELAY_MS", zap.Error(err))
		} else {
			s.DoubleTapDelay = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("GHOSTWRITE_DEFAULT_AGENT"); v != "" {
		s.DefaultAgent = v
	}
	if v := os.Getenv("GHOSTWRITE_PROVIDER"); v != "" {
		s.Generation.Provider = v
	}
	if v := os.Getenv("GHOSTWRITE_BASE_URL"); v != "" {
		s.Generation.BaseURL = v
	}
	if v := os.Getenv("GHOSTWRITE_API_KEY"); v != "" {
		s.Generation.APIKey = v
	}
	if v := os.Getenv("GHOSTWRITE_MODEL"); v != "" {
		s.Generation.Model = v
	}
	if v := os.Getenv("GHOSTWRITE_TEMPERATURE"); v != "" {
		temperature, err := strconv.ParseFloat(v, 64)
		if err != nil {
			logger.Debug("error parsing GHOSTWRITE_TEMPERATURE", zap.Error(err))
		} else {
			s.Generation.Temperature = &temperature
		}
	}
	if v := os.Getenv("GHOSTWRITE_TIMEOUT_SECONDS"); v != "" {
		seconds, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			logger.Debug("error parsing GHOSTWRITE_TIMEOUT_SECONDS", zap.Error(err))
		} else {
			s.Generation.Timeout = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("GHOSTWRITE_NOTE_QUERY"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Debug("error parsing GHOSTWRITE_NOTE_QUERY", zap.Error(err))
		} else {
			s.Augment.NoteQuery = enabled
		}
	}
}

func (s *Settings) normalize() {
	defaults := Default()

	s.TriggerKey = strings.ToLower(strings.TrimSpace(s.TriggerKey))
	if s.TriggerKey == "" {
		s.TriggerKey = defaults.TriggerKey
	}
	if s.DoubleTapDelay <= 0 {
		s.DoubleTapDelay = defaults.DoubleTapDelay
	}
	switch s.Context.Scope {
	case ScopeFull, ScopeBlocks, ScopeCurrent:
	default:
		s.Context.Scope = defaults.Context.Scope
	}
	if s.Context.BeforeBlocks < 0 {
		s.Context.BeforeBlocks = 0
	}
	if s.Context.AfterBlocks < 0 {
		s.Context.AfterBlocks = 0
	}
	if s.Augment.Limit <= 0 {
		s.Augment.Limit = defaults.Augment.Limit
	}
	if s.Augment.Timeout <= 0 {
		s.Augment.Timeout = defaults.Augment.Timeout
	}
	if s.Generation.Timeout <= 0 {
		s.Generation.Timeout = defaults.Generation.Timeout
	}
	s.Generation.Provider = strings.ToLower(strings.TrimSpace(s.Generation.Provider))
}
