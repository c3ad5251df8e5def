// ABOUTME: Explicit plugin registration replacing dynamic module loading.
// ABOUTME: Plugins are compiled-in functions selected by name from config.

package plugin

import (
	"fmt"

	"github.com/2389/hearth/internal/event"
	"github.com/2389/hearth/internal/orchestrator"
	"github.com/2389/hearth/internal/registry"
	"github.com/2389/hearth/internal/state"
)

// Registry is the handle a plugin receives at startup. Plugins call Register
// on the action/signal registries during startup only.
type Registry struct {
	Actions      *registry.ActionRegistry
	Signals      *registry.SignalRegistry
	State        *state.Store
	Events       *event.Bus
	Orchestrator *orchestrator.Orchestrator
}

// RegisterFunc wires one plugin's actions and signals into the hub.
type RegisterFunc func(reg *Registry) error

// catalog maps plugin names to their registration functions. Adding a plugin
// means adding a compiled-in entry here; there is no runtime code loading.
var catalog = map[string]RegisterFunc{
	"builtin": RegisterBuiltin,
}

// Load resolves the named plugins from the catalog and runs each registration
// function. An unknown name is a configuration error surfaced before the
// service accepts traffic.
func Load(names []string, reg *Registry) error {
	for _, name := range names {
		register, ok := catalog[name]
		if !ok {
			return fmt.Errorf("unknown plugin %q (available: %v)", name, Names())
		}
		if err := register(reg); err != nil {
			return fmt.Errorf("registering plugin %q: %w", name, err)
		}
	}
	return nil
}

// Names returns the catalog's plugin names for error messages and diagnostics.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return names
}
