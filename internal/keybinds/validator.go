package keybinds

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a keybinding validation error
type ValidationError struct {
	Type    string // "conflict", "invalid", "warning"
	Context Context
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s in context '%s': %s", e.Type, e.Key, e.Context, e.Message)
}

// ValidationResult contains all validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any errors
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any warnings
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of validation results
func (r *ValidationResult) String() string {
	var sb strings.Builder

	if len(r.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("Errors (%d):\n", len(r.Errors)))
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
		}
	}

	if len(r.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("Warnings (%d):\n", len(r.Warnings)))
		for _, warn := range r.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn.Error()))
		}
	}

	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}

	return sb.String()
}

// Validator validates keybinding configurations
type Validator struct {
	// reservedKeys must keep their action in the global context
	reservedKeys map[string]Action

	// knownActions are the actions the TUI handles
	knownActions map[Action]bool
}

// NewValidator creates a new keybinding validator
func NewValidator() *Validator {
	known := make(map[Action]bool)
	for _, context := range Contexts {
		for _, b := range NewDefaultRegistry().ListBindings(context) {
			known[b.Action] = true
		}
	}

	return &Validator{
		reservedKeys: map[string]Action{
			"ctrl+c": ActionQuitForce, // Force quit should always work
		},
		knownActions: known,
	}
}

// ValidateRegistry validates an entire registry
func (v *Validator) ValidateRegistry(registry *Registry) *ValidationResult {
	result := &ValidationResult{}

	v.checkUnknownActions(registry, result)
	v.checkReservedKeys(registry, result)
	v.checkSequences(registry, result)
	v.checkShadowing(registry, result)

	sortIssues(result.Errors)
	sortIssues(result.Warnings)
	return result
}

// ValidateConfig validates a configuration before applying it on top of
// the defaults
func (v *Validator) ValidateConfig(config *Config) *ValidationResult {
	registry := NewDefaultRegistry()
	if err := ApplyConfig(registry, config); err != nil {
		return &ValidationResult{Errors: []ValidationError{{Type: "invalid", Message: err.Error()}}}
	}
	return v.ValidateRegistry(registry)
}

func (v *Validator) checkUnknownActions(registry *Registry, result *ValidationResult) {
	for context, bindings := range registry.bindings {
		for key, action := range bindings {
			if !v.knownActions[action] {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "invalid",
					Context: context,
					Key:     key,
					Message: fmt.Sprintf("unknown action %q", action),
				})
			}
		}
	}
}

// checkReservedKeys checks if any reserved keys have been rebound
func (v *Validator) checkReservedKeys(registry *Registry, result *ValidationResult) {
	for key, reserved := range v.reservedKeys {
		if action, ok := registry.bindings[ContextGlobal][key]; ok && action != reserved {
			result.Warnings = append(result.Warnings, ValidationError{
				Type:    "warning",
				Context: ContextGlobal,
				Key:     key,
				Message: "reserved key rebound (may cause issues)",
			})
		}
	}
}

// checkSequences reports sequences that can never fire because their first
// key is bound on its own
func (v *Validator) checkSequences(registry *Registry, result *ValidationResult) {
	for context, bindings := range registry.bindings {
		for key := range bindings {
			if !isSequence(key) {
				continue
			}
			first := key[:1]
			if _, single := registry.Match(context, first); single {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "conflict",
					Context: context,
					Key:     key,
					Message: fmt.Sprintf("unreachable: %q is bound on its own", first),
				})
			}
		}
	}
}

// checkShadowing checks for context-specific bindings that shadow global bindings
func (v *Validator) checkShadowing(registry *Registry, result *ValidationResult) {
	globalBindings := registry.bindings[ContextGlobal]

	for context, bindings := range registry.bindings {
		if context == ContextGlobal {
			continue
		}
		for key, action := range bindings {
			if globalAction, hasGlobal := globalBindings[key]; hasGlobal && action != globalAction {
				result.Warnings = append(result.Warnings, ValidationError{
					Type:    "warning",
					Context: context,
					Key:     key,
					Message: fmt.Sprintf("shadows global binding (%s -> %s)", globalAction, action),
				})
			}
		}
	}
}

func sortIssues(issues []ValidationError) {
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Context != issues[j].Context {
			return issues[i].Context < issues[j].Context
		}
		return issues[i].Key < issues[j].Key
	})
}

// ValidateKey checks if a key string is valid
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	for _, mod := range []string{"ctrl+", "alt+", "shift+", "super+"} {
		if key == mod {
			return fmt.Errorf("modifier without key: %s", key)
		}
	}
	return nil
}

// ValidateAction checks if an action string is valid
func ValidateAction(actionStr string) error {
	if actionStr == "" {
		return fmt.Errorf("action cannot be empty")
	}
	return nil
}
