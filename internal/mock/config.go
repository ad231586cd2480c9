package mock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8000
	DefaultPath = "/api/analyze"
)

// LoadConfig loads a mock configuration from a .yaml, .yml, .json or .jsonc file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json", ".jsonc":
		// comments and trailing commas are accepted in both
		if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, .json or .jsonc)", ext)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// DefaultConfig answers every request with a sample result for its mode
func DefaultConfig() *Config {
	return &Config{
		Host:    DefaultHost,
		Port:    DefaultPort,
		Path:    DefaultPath,
		Logging: true,
		Responses: []Response{
			{Name: "sample plagiarism", Mode: "plagiarism", Match: "copied", Body: SamplePlagiarism},
			{Name: "sample no plagiarism", Mode: "plagiarism", Body: SampleNoPlagiarism},
			{Name: "sample doppelgangers", Mode: "doppelganger", Body: SampleDoppelganger},
		},
	}
}

func validateConfig(config *Config) error {
	if len(config.Responses) == 0 {
		return fmt.Errorf("no responses defined")
	}

	for i, resp := range config.Responses {
		if !resp.Mode.Valid() {
			return fmt.Errorf("response %d: mode must be 'plagiarism' or 'doppelganger'", i)
		}
		if resp.Body != "" && resp.BodyFile != "" {
			return fmt.Errorf("response %d: body and bodyFile are mutually exclusive", i)
		}
		if resp.Status != 0 && (resp.Status < 100 || resp.Status > 599) {
			return fmt.Errorf("response %d: invalid status %d", i, resp.Status)
		}
		if resp.Delay < 0 {
			return fmt.Errorf("response %d: delay must not be negative", i)
		}
	}

	return nil
}

// SaveConfig saves a mock configuration to a file
func SaveConfig(config *Config, path string) error {
	var data []byte
	var err error

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
	case ".json", ".jsonc":
		data, err = json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, .json or .jsonc)", ext)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
