// ABOUTME: Thread-safe registry mapping action names to handlers and metadata.
// ABOUTME: Ships built-in agent.start/cancel/input actions forwarding to the orchestrator.

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Handler executes an action or signal with its raw payload. Handlers validate
// their own payload fields and fail fast with a *ValidationError before any
// side effect.
type Handler func(ctx context.Context, payload map[string]any) error

// Commander is the orchestrator surface the built-in actions forward to.
type Commander interface {
	StartAgent(id string) error
	CancelAgent(id string) error
	ProvideInput(id, text string) error
}

// ActionRegistry maps named actions to handlers with descriptive metadata.
type ActionRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	metadata map[string]Metadata
	logger   *slog.Logger

	// onRun is an optional metrics hook, invoked with the action name on
	// every successful dispatch.
	onRun func(name string)
}

// NewActionRegistry creates an action registry with the three built-in agent
// actions already registered against cmd.
func NewActionRegistry(cmd Commander, logger *slog.Logger) *ActionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &ActionRegistry{
		handlers: make(map[string]Handler),
		metadata: make(map[string]Metadata),
		logger:   logger.With("component", "actions"),
	}
	r.registerDefaults(cmd)
	return r
}

// SetRunHook installs an optional counter invoked per handler run. Must be
// called before the registry is shared.
func (r *ActionRegistry) SetRunHook(fn func(name string)) {
	r.onRun = fn
}

// Register stores a handler under name, overwriting any prior registration.
// The schema's internal consistency is not checked.
func (r *ActionRegistry) Register(name string, handler Handler, description string, schema Schema) {
	if schema == nil {
		schema = Schema{}
	}
	r.mu.Lock()
	r.handlers[name] = handler
	r.metadata[name] = Metadata{Name: name, Description: description, PayloadSchema: schema}
	total := len(r.handlers)
	r.mu.Unlock()

	r.logger.Debug("action registered", "name", name, "total_actions", total)
}

// Run invokes the named handler with the raw payload, propagating whatever
// error the handler returns. Fails with ErrActionNotFound for unknown names.
func (r *ActionRegistry) Run(ctx context.Context, name string, payload map[string]any) error {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrActionNotFound, name)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if err := handler(ctx, payload); err != nil {
		return err
	}
	if r.onRun != nil {
		r.onRun(name)
	}
	return nil
}

// List returns all registered metadata sorted by name.
func (r *ActionRegistry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.metadata))
	for name := range r.metadata {
		names = append(names, name)
	}
	sort.Strings(names)

	metas := make([]Metadata, 0, len(names))
	for _, name := range names {
		metas = append(metas, r.metadata[name])
	}
	return metas
}

// Metadata returns the metadata registered under name.
func (r *ActionRegistry) Metadata(name string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.metadata[name]
	return meta, ok
}

// registerDefaults wires the built-in agent lifecycle actions.
func (r *ActionRegistry) registerDefaults(cmd Commander) {
	r.Register("agent.start",
		func(ctx context.Context, payload map[string]any) error {
			agentID, err := requireString(payload, "agent_id")
			if err != nil {
				return err
			}
			return cmd.StartAgent(agentID)
		},
		"Start an agent by ID",
		Schema{"agent_id": {Type: "string", Required: true}},
	)

	r.Register("agent.cancel",
		func(ctx context.Context, payload map[string]any) error {
			agentID, err := requireString(payload, "agent_id")
			if err != nil {
				return err
			}
			return cmd.CancelAgent(agentID)
		},
		"Cancel a running agent by ID",
		Schema{"agent_id": {Type: "string", Required: true}},
	)

	r.Register("agent.input",
		func(ctx context.Context, payload map[string]any) error {
			agentID, err := requireString(payload, "agent_id")
			if err != nil {
				return err
			}
			text, ok := payload["text"]
			if !ok || text == nil {
				return NewValidationError("text is required")
			}
			return cmd.ProvideInput(agentID, fmt.Sprint(text))
		},
		"Provide input text to an agent",
		Schema{
			"agent_id": {Type: "string", Required: true},
			"text":     {Type: "string", Required: true},
		},
	)
}

// requireString extracts a non-empty string payload field or fails validation.
func requireString(payload map[string]any, field string) (string, error) {
	v, ok := payload[field]
	if !ok || v == nil || fmt.Sprint(v) == "" {
		return "", NewValidationError(field + " is required")
	}
	return fmt.Sprint(v), nil
}
