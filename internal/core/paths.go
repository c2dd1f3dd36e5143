package core

import (
	"os"
	"path/filepath"
)

type Paths struct {
	HomeDir      string
	DataDir      string
	ConfigDir    string
	LogFile      string
	NotesFile    string
	SettingsFile string
	EnvFile      string
	AgentsDir    string
}

var defaultPaths *Paths

// NewPaths lays out the data and config directories under homeDir.
func NewPaths(homeDir string) *Paths {
	dataDir := filepath.Join(homeDir, ".local", "share", "ghostwrite")
	configDir := filepath.Join(homeDir, ".config", "ghostwrite")
	return &Paths{
		HomeDir:      homeDir,
		DataDir:      dataDir,
		ConfigDir:    configDir,
		LogFile:      filepath.Join(dataDir, "ghostwrite.log"),
		NotesFile:    filepath.Join(dataDir, "notes.db"),
		SettingsFile: filepath.Join(configDir, "settings.yaml"),
		EnvFile:      filepath.Join(configDir, ".env"),
		AgentsDir:    filepath.Join(configDir, "agents"),
	}
}

func ensureDefaultPaths() {
	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}

		defaultPaths = NewPaths(homeDir)

		for _, dir := range []string{defaultPaths.DataDir, defaultPaths.ConfigDir} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				panic(err)
			}
		}
	}
}

func HomeDir() string {
	ensureDefaultPaths()
	return defaultPaths.HomeDir
}

func DataDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

func LogFile() string {
	ensureDefaultPaths()
	return defaultPaths.LogFile
}

func NotesFile() string {
	ensureDefaultPaths()
	return defaultPaths.NotesFile
}

func SettingsFile() string {
	ensureDefaultPaths()
	return defaultPaths.SettingsFile
}

func EnvFile() string {
	ensureDefaultPaths()
	return defaultPaths.EnvFile
}

func AgentsDir() string {
	ensureDefaultPaths()
	return defaultPaths.AgentsDir
}
