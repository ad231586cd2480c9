package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// LocalSettingsFile overrides the global settings when present in the working directory
	LocalSettingsFile = ".twins.yaml"
	// LocalSessionFile overrides the global session when present in the working directory
	LocalSessionFile = ".session.json"
)

var (
	// ConfigDir is the global configuration directory (~/.twins)
	ConfigDir string

	// DatabasePath is the SQLite database file for history and analytics
	DatabasePath string

	// SessionFile is the session state file
	SessionFile string

	// SettingsFile is the global settings file
	SettingsFile string

	// LogFile receives the structured application log
	LogFile string
)

// Initialize sets up the configuration directory and files
// It creates ~/.twins/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return InitializeAt(filepath.Join(homeDir, ".twins"))
}

// InitializeAt is Initialize rooted at dir
func InitializeAt(dir string) error {
	ConfigDir = dir
	DatabasePath = filepath.Join(ConfigDir, "twins.db")
	SessionFile = filepath.Join(ConfigDir, ".session.json")
	SettingsFile = filepath.Join(ConfigDir, "config.yaml")
	LogFile = filepath.Join(ConfigDir, "twins.log")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	// Create default session file if it doesn't exist
	if _, err := os.Stat(SessionFile); os.IsNotExist(err) {
		defaultSession := []byte(`{"mode":"plagiarism","historyEnabled":true}`)
		if err := os.WriteFile(SessionFile, defaultSession, FilePermissions); err != nil {
			return fmt.Errorf("failed to create session file: %w", err)
		}
	}

	// Create commented settings file if it doesn't exist
	if _, err := os.Stat(SettingsFile); os.IsNotExist(err) {
		if err := os.WriteFile(SettingsFile, []byte(defaultSettingsYAML), FilePermissions); err != nil {
			return fmt.Errorf("failed to create settings file: %w", err)
		}
	}

	return nil
}

// LocalConfigExists checks if there's a local .twins.yaml or .session.json
func LocalConfigExists() bool {
	_, settingsErr := os.Stat(LocalSettingsFile)
	_, sessionErr := os.Stat(LocalSessionFile)
	return settingsErr == nil || sessionErr == nil
}

// GetSessionFilePath returns the session file path (local or global)
func GetSessionFilePath() string {
	if _, err := os.Stat(LocalSessionFile); err == nil {
		return LocalSessionFile
	}
	return SessionFile
}

// GetSettingsFilePath returns the settings file path (local or global)
func GetSettingsFilePath() string {
	if _, err := os.Stat(LocalSettingsFile); err == nil {
		return LocalSettingsFile
	}
	return SettingsFile
}

const defaultSettingsYAML = `# twins settings
# endpoint: http://127.0.0.1:8000/api/analyze
# timeout: 3m          # 0 waits forever
# token: ""            # sent as a bearer token
# history: true
# output: ""           # text, json, yaml or raw (auto when empty)
# logLevel: info
# tls:
#   caFile: ""
#   certFile: ""
#   keyFile: ""
#   insecureSkipVerify: false
`
