// ABOUTME: Thread-safe registry mapping external signal names to handlers.
// ABOUTME: Signals are inbound notifications (webhooks) from outside the hub.

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// SignalRegistry maps named signals to handlers with descriptive metadata.
type SignalRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	metadata map[string]Metadata
	logger   *slog.Logger

	onHandle func(name string)
}

// NewSignalRegistry creates an empty signal registry.
func NewSignalRegistry(logger *slog.Logger) *SignalRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignalRegistry{
		handlers: make(map[string]Handler),
		metadata: make(map[string]Metadata),
		logger:   logger.With("component", "signals"),
	}
}

// SetHandleHook installs an optional counter invoked per handled signal. Must
// be called before the registry is shared.
func (r *SignalRegistry) SetHandleHook(fn func(name string)) {
	r.onHandle = fn
}

// Register stores a handler under name, overwriting any prior registration.
func (r *SignalRegistry) Register(name string, handler Handler, description string, schema Schema) {
	if schema == nil {
		schema = Schema{}
	}
	r.mu.Lock()
	r.handlers[name] = handler
	r.metadata[name] = Metadata{Name: name, Description: description, PayloadSchema: schema}
	total := len(r.handlers)
	r.mu.Unlock()

	r.logger.Debug("signal registered", "name", name, "total_signals", total)
}

// Handle invokes the named handler with the raw payload, propagating whatever
// error the handler returns. Fails with ErrSignalNotFound for unknown names.
func (r *SignalRegistry) Handle(ctx context.Context, name string, payload map[string]any) error {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSignalNotFound, name)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if err := handler(ctx, payload); err != nil {
		return err
	}
	if r.onHandle != nil {
		r.onHandle(name)
	}
	return nil
}

// List returns all registered metadata sorted by name.
func (r *SignalRegistry) List() []Metadata {
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
func (r *SignalRegistry) Metadata(name string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.metadata[name]
	return meta, ok
}
