package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sciencetwins/twins/internal/config"
	"github.com/sciencetwins/twins/internal/types"
)

const maxRecentFiles = 10

// Manager handles the state persisted between runs
type Manager struct {
	path    string
	session *types.Session
}

// NewManager creates a session manager on the local or global session file
func NewManager() *Manager {
	return NewManagerAt(config.GetSessionFilePath())
}

// NewManagerAt creates a session manager on an explicit file
func NewManagerAt(path string) *Manager {
	return &Manager{path: path, session: defaultSession()}
}

func defaultSession() *types.Session {
	enabled := true
	return &types.Session{Mode: types.DefaultMode, HistoryEnabled: &enabled}
}

// Load loads the session file. A missing file yields the defaults.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		// If file doesn't exist, use default session
		m.session = defaultSession()
		return nil
	}

	var session types.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	if !session.Mode.Valid() {
		session.Mode = types.DefaultMode
	}
	if session.HistoryEnabled == nil {
		enabled := true
		session.HistoryEnabled = &enabled
	}

	m.session = &session
	return nil
}

// Save saves the session to disk
func (m *Manager) Save() error {
	data, err := json.MarshalIndent(m.session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(m.path, data, config.FilePermissions); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// GetSession returns the current session
func (m *Manager) GetSession() *types.Session {
	return m.session
}

// Mode returns the last selected mode
func (m *Manager) Mode() types.Mode {
	return m.session.Mode
}

// SetMode records the selected mode and saves
func (m *Manager) SetMode(mode types.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid mode %q", mode)
	}
	if m.session.Mode == mode {
		return nil
	}
	m.session.Mode = mode
	return m.Save()
}

// IsHistoryEnabled returns whether history is enabled
func (m *Manager) IsHistoryEnabled() bool {
	if m.session.HistoryEnabled == nil {
		return true
	}
	return *m.session.HistoryEnabled
}

// SetHistoryEnabled sets whether history is enabled and saves
func (m *Manager) SetHistoryEnabled(enabled bool) error {
	m.session.HistoryEnabled = &enabled
	return m.Save()
}

// AddRecentFile puts a selected PDF at the front of the recent list and saves
func (m *Manager) AddRecentFile(filePath string) error {
	if abs, err := filepath.Abs(filePath); err == nil {
		filePath = abs
	}

	recent := []string{filePath}
	for _, f := range m.session.RecentFiles {
		if f != filePath {
			recent = append(recent, f)
		}
	}
	if len(recent) > maxRecentFiles {
		recent = recent[:maxRecentFiles]
	}

	m.session.RecentFiles = recent
	return m.Save()
}

// GetRecentFiles returns recently selected files, most recent first
func (m *Manager) GetRecentFiles() []string {
	return m.session.RecentFiles
}

// CompleteRecent returns the recent files starting with prefix
func (m *Manager) CompleteRecent(prefix string) []string {
	var matches []string
	for _, f := range m.session.RecentFiles {
		if strings.HasPrefix(f, prefix) {
			matches = append(matches, f)
		}
	}
	return matches
}
