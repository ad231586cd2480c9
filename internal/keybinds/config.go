package keybinds

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

// FileName is the keybinding file inside the twins config directory
const FileName = "keybinds.json"

// Config is the user's keybinding file: context -> action -> keys, where
// keys is a comma separated list such as "up,k"
type Config struct {
	Version  string                       `json:"version"`
	Bindings map[Context]map[Action]string `json:"bindings"`
}

// LoadConfig loads keybinding configuration from a JSON file. Comments and
// trailing commas are accepted.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
		return nil, fmt.Errorf("invalid %s format: %w", FileName, err)
	}
	return &config, nil
}

// SaveConfig saves keybinding configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParseKeys splits a comma separated key list. A lone "," binds the comma key.
func ParseKeys(value string) []string {
	if strings.TrimSpace(value) == "," {
		return []string{","}
	}
	var keys []string
	for _, key := range strings.Split(value, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// ApplyConfig applies user configuration to a registry. An action listed in
// a context loses its default keys in that context.
func ApplyConfig(registry *Registry, config *Config) error {
	for context, actions := range config.Bindings {
		for action, value := range actions {
			if err := ValidateAction(string(action)); err != nil {
				return fmt.Errorf("context %q: %w", context, err)
			}
			keys := ParseKeys(value)
			for _, key := range keys {
				if err := ValidateKey(key); err != nil {
					return fmt.Errorf("context %q, action %q: %w", context, action, err)
				}
			}
			registry.Unbind(context, action)
			registry.RegisterMultiple(context, keys, action)
		}
	}
	return nil
}

// LoadOrDefault loads user config if it exists, otherwise returns the default registry
func LoadOrDefault(configPath string) (*Registry, error) {
	registry := NewDefaultRegistry()

	if _, err := os.Stat(configPath); err != nil {
		return registry, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", FileName, err)
	}
	if err := ApplyConfig(registry, config); err != nil {
		return nil, fmt.Errorf("failed to apply keybinds config: %w", err)
	}
	return registry, nil
}

// ExportConfig writes every binding of a registry as a config, so users can
// start from the defaults
func ExportConfig(registry *Registry) *Config {
	config := &Config{Version: "1.0", Bindings: make(map[Context]map[Action]string)}
	for context := range registry.bindings {
		grouped := make(map[Action][]string)
		for _, b := range registry.ListBindings(context) {
			grouped[b.Action] = append(grouped[b.Action], b.Key)
		}
		actions := make(map[Action]string, len(grouped))
		for action, keys := range grouped {
			sort.Strings(keys)
			actions[action] = strings.Join(keys, ",")
		}
		config.Bindings[context] = actions
	}
	return config
}
