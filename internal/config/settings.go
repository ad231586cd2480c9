package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/types"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the settings file
const (
	EnvEndpoint = "TWINS_ENDPOINT"
	EnvTimeout  = "TWINS_TIMEOUT"
	EnvToken    = "TWINS_TOKEN"
	EnvLogLevel = "TWINS_LOG_LEVEL"
)

// Duration is a time.Duration read from strings like "90s" or "3m".
// Bare integers are taken as seconds.
type Duration time.Duration

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// ParseDuration accepts Go duration strings and plain seconds
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	var seconds int
	if _, err := fmt.Sscanf(s, "%d", &seconds); err == nil && fmt.Sprint(seconds) == s {
		return time.Duration(seconds) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid duration %q", s)
}

// Settings are the user-editable options
type Settings struct {
	Endpoint string           `yaml:"endpoint"`
	Timeout  *Duration        `yaml:"timeout,omitempty"`
	Token    string           `yaml:"token,omitempty"`
	History  *bool            `yaml:"history,omitempty"`
	Output   string           `yaml:"output,omitempty"`
	LogLevel string           `yaml:"logLevel,omitempty"`
	TLS      *types.TLSConfig `yaml:"tls,omitempty"`
}

// DefaultSettings returns the built-in defaults
func DefaultSettings() Settings {
	timeout := Duration(executor.DefaultTimeout)
	history := true
	return Settings{
		Endpoint: executor.DefaultEndpoint,
		Timeout:  &timeout,
		History:  &history,
		LogLevel: "info",
	}
}

// RequestTimeout returns the configured timeout, 0 meaning unbounded
func (s Settings) RequestTimeout() time.Duration {
	if s.Timeout == nil {
		return executor.DefaultTimeout
	}
	return time.Duration(*s.Timeout)
}

// HistoryEnabled reports whether analyses are recorded
func (s Settings) HistoryEnabled() bool {
	return s.History == nil || *s.History
}

// ClientConfig converts the settings into an executor configuration
func (s Settings) ClientConfig() executor.ClientConfig {
	return executor.ClientConfig{
		Endpoint: s.Endpoint,
		Timeout:  s.RequestTimeout(),
		Token:    s.Token,
		TLS:      s.TLS,
	}
}

// LoadSettings reads the effective settings: defaults, then the settings
// file (local beats global), then .env and the environment.
func LoadSettings() (Settings, error) {
	return LoadSettingsFrom(GetSettingsFilePath(), ".env")
}

// LoadSettingsFrom is LoadSettings with explicit file locations. Missing
// files are skipped.
func LoadSettingsFrom(settingsPath, envPath string) (Settings, error) {
	settings := DefaultSettings()

	if settingsPath != "" {
		data, err := os.ReadFile(settingsPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &settings); err != nil {
				return settings, fmt.Errorf("failed to parse settings file %s: %w", settingsPath, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return settings, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	if envPath != "" {
		// godotenv never overrides variables already set in the environment
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return settings, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	if err := applyEnv(&settings); err != nil {
		return settings, err
	}

	if settings.Endpoint == "" {
		settings.Endpoint = executor.DefaultEndpoint
	}
	return settings, nil
}

func applyEnv(s *Settings) error {
	if v := os.Getenv(EnvEndpoint); v != "" {
		s.Endpoint = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		s.Token = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		timeout := Duration(d)
		s.Timeout = &timeout
	}
	return nil
}

// Marshal renders settings as YAML with the token masked
func (s Settings) Marshal() ([]byte, error) {
	if s.Token != "" {
		s.Token = "********"
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	return data, nil
}
