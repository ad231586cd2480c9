package keybinds

import (
	"sort"
	"strings"
)

// Binding represents a keybinding mapping
type Binding struct {
	Key     string
	Action  Action
	Context Context
}

// Registry manages keybinding mappings and matching
type Registry struct {
	// bindings maps context -> key -> action
	bindings map[Context]map[string]Action

	// pending tracks multi-key sequences (like 'gg' in vim)
	pending map[Context]string
}

// NewRegistry creates a new keybinding registry
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[Context]map[string]Action),
		pending:  make(map[Context]string),
	}
}

// Register adds a keybinding to the registry
func (r *Registry) Register(context Context, key string, action Action) {
	if r.bindings[context] == nil {
		r.bindings[context] = make(map[string]Action)
	}
	r.bindings[context][key] = action
}

// RegisterMultiple registers multiple keybindings for the same action
func (r *Registry) RegisterMultiple(context Context, keys []string, action Action) {
	for _, key := range keys {
		r.Register(context, key, action)
	}
}

// Unbind removes every key bound to action in context
func (r *Registry) Unbind(context Context, action Action) {
	for key, act := range r.bindings[context] {
		if act == action {
			delete(r.bindings[context], key)
		}
	}
}

// Match attempts to match a key to an action in the given context.
// The specific context wins over global.
func (r *Registry) Match(context Context, key string) (Action, bool) {
	if action, ok := r.bindings[context][key]; ok {
		return action, true
	}
	if action, ok := r.bindings[ContextGlobal][key]; ok {
		return action, true
	}
	return "", false
}

// MatchMultiKey handles multi-key sequences like 'gg' for go-to-top.
// Returns the action, whether it's a complete match, and whether it's a partial match.
func (r *Registry) MatchMultiKey(context Context, key string) (Action, bool, bool) {
	if prev, hasPending := r.pending[context]; hasPending {
		delete(r.pending, context)
		sequence := prev + key
		if action, ok := r.Match(context, sequence); ok {
			return action, true, false
		}
		if r.isPrefix(context, sequence) {
			r.pending[context] = sequence
			return "", false, true
		}
		return "", false, false
	}

	if action, ok := r.Match(context, key); ok {
		return action, true, false
	}
	if r.isPrefix(context, key) {
		r.pending[context] = key
		return "", false, true
	}
	return "", false, false
}

// isPrefix reports whether some longer key sequence starts with prefix
func (r *Registry) isPrefix(context Context, prefix string) bool {
	for _, ctx := range []Context{context, ContextGlobal} {
		for key := range r.bindings[ctx] {
			if isSequence(key) && len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
				return true
			}
		}
	}
	return false
}

// isSequence reports whether key is typed as several plain keys
func isSequence(key string) bool {
	return len(key) > 1 && !strings.Contains(key, "+") && strings.ToLower(key) == key && !namedKeys[key]
}

var namedKeys = map[string]bool{
	"up": true, "down": true, "left": true, "right": true,
	"enter": true, "esc": true, "tab": true, "space": true,
	"home": true, "end": true, "pgup": true, "pgdown": true,
	"backspace": true, "delete": true, "insert": true,
	"f1": true, "f2": true, "f3": true, "f4": true, "f5": true, "f6": true,
	"f7": true, "f8": true, "f9": true, "f10": true, "f11": true, "f12": true,
}

// ClearMultiKeyState clears any pending multi-key state for a context
func (r *Registry) ClearMultiKeyState(context Context) {
	delete(r.pending, context)
}

// GetBinding returns the key(s) bound to an action in a context, falling
// back to global. Keys are sorted.
func (r *Registry) GetBinding(context Context, action Action) []string {
	keys := keysFor(r.bindings[context], action)
	if len(keys) == 0 && context != ContextGlobal {
		keys = keysFor(r.bindings[ContextGlobal], action)
	}
	return keys
}

func keysFor(bindings map[string]Action, action Action) []string {
	var keys []string
	for key, act := range bindings {
		if act == action {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// GetBindingString returns a human-readable string of keys bound to an action
func (r *Registry) GetBindingString(context Context, action Action) string {
	keys := r.GetBinding(context, action)
	if len(keys) == 0 {
		return "unbound"
	}
	return strings.Join(keys, "/")
}

// ListBindings returns the bindings of one context, sorted by action then key
func (r *Registry) ListBindings(context Context) []Binding {
	var bindings []Binding
	for key, action := range r.bindings[context] {
		bindings = append(bindings, Binding{Key: key, Action: action, Context: context})
	}
	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].Action != bindings[j].Action {
			return bindings[i].Action < bindings[j].Action
		}
		return bindings[i].Key < bindings[j].Key
	})
	return bindings
}

// HasBinding checks if a key is bound in a context
func (r *Registry) HasBinding(context Context, key string) bool {
	_, ok := r.Match(context, key)
	return ok
}

// Clone creates a deep copy of the registry
func (r *Registry) Clone() *Registry {
	clone := NewRegistry()
	clone.Merge(r)
	return clone
}

// Merge combines bindings from another registry, with other taking precedence
func (r *Registry) Merge(other *Registry) {
	for context, contextBindings := range other.bindings {
		for key, action := range contextBindings {
			r.Register(context, key, action)
		}
	}
}
