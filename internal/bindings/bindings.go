// ABOUTME: Panel button bindings mapping physical keys to actions and indicators.
// ABOUTME: Loads YAML or JSON binding files with built-in defaults.

package bindings

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Binding maps a physical input key to an action invocation and an optional
// state key used to drive the key's indicator light.
type Binding struct {
	Key          string         `json:"key" yaml:"key"`
	Action       string         `json:"action" yaml:"action"`
	Payload      map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
	IndicatorKey string         `json:"indicator_key,omitempty" yaml:"indicator_key,omitempty"`
}

// Defaults returns the built-in bindings used when no bindings file is
// configured.
func Defaults() []Binding {
	return []Binding{
		{
			Key:          "front-door",
			Action:       "ui.open_url",
			Payload:      map[string]any{"url": "https://homeassistant.local"},
			IndicatorKey: "camera.front_door.motion",
		},
		{
			Key:     "mock-1-start",
			Action:  "agent.start",
			Payload: map[string]any{"agent_id": "mock-1"},
		},
	}
}

// Load reads bindings from path. YAML is a superset of JSON, so both formats
// load through the same decoder. An empty path returns the defaults.
func Load(path string) ([]Binding, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("reading bindings file: %w", err)
	}

	var bindings []Binding
	if err := yaml.Unmarshal(data, &bindings); err != nil {
		return nil, fmt.Errorf("parsing bindings file %s: %w", path, err)
	}

	for i, b := range bindings {
		if b.Key == "" {
			return nil, fmt.Errorf("binding %d: key is required", i)
		}
		if b.Action == "" {
			return nil, fmt.Errorf("binding %d (%s): action is required", i, b.Key)
		}
	}
	return bindings, nil
}

// Resolver looks bindings up by physical key. Safe for concurrent use; the
// binding set is replaced wholesale by Replace.
type Resolver struct {
	mu      sync.RWMutex
	byKey   map[string]Binding
	ordered []Binding
}

// NewResolver creates a resolver over the given bindings. A later binding with
// a duplicate key wins, matching file order.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{}
	r.Replace(bindings)
	return r
}

// Replace swaps in a new binding set.
func (r *Resolver) Replace(bindings []Binding) {
	byKey := make(map[string]Binding, len(bindings))
	for _, b := range bindings {
		byKey[b.Key] = b
	}
	r.mu.Lock()
	r.byKey = byKey
	r.ordered = append([]Binding(nil), bindings...)
	r.mu.Unlock()
}

// Resolve returns the binding for key, or false when no binding exists.
func (r *Resolver) Resolve(key string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byKey[key]
	return b, ok
}

// All returns the bindings in file order.
func (r *Resolver) All() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Binding(nil), r.ordered...)
}
