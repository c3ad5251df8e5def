// ABOUTME: In-memory fan-out event bus delivering envelopes to subscriber sinks.
// ABOUTME: Validates envelopes on emit and reclaims sinks that fail to deliver.

package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Sink consumes envelopes from the Bus. Open performs any sink-specific
// handshake (accepting a connection, for instance) and is called exactly once,
// by Subscribe. Deliver hands the sink one envelope; a non-nil error marks the
// sink as dead and the bus drops it permanently.
type Sink interface {
	Open(ctx context.Context) error
	Deliver(ev *Envelope) error
}

// Bus is the in-memory pub/sub hub for hearth events. Safe for concurrent
// Subscribe, Unsubscribe, and Emit from independent goroutines.
type Bus struct {
	mu     sync.RWMutex
	sinks  map[Sink]struct{}
	logger *slog.Logger

	// onEmit and onSinkFailure are optional hooks for metrics.
	onEmit        func()
	onSinkFailure func()
}

// NewBus creates a bus. Pass nil logger for the default.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		sinks:  make(map[Sink]struct{}),
		logger: logger.With("component", "eventbus"),
	}
}

// SetHooks installs optional counters invoked on every successful emit and on
// every sink delivery failure. Must be called before the bus is shared.
func (b *Bus) SetHooks(onEmit, onSinkFailure func()) {
	b.onEmit = onEmit
	b.onSinkFailure = onSinkFailure
}

// Subscribe runs the sink's handshake and adds it to the live set. Subscribing
// the same sink instance twice is a caller error the bus does not detect.
func (b *Bus) Subscribe(ctx context.Context, s Sink) error {
	if err := s.Open(ctx); err != nil {
		return fmt.Errorf("opening sink: %w", err)
	}

	b.mu.Lock()
	b.sinks[s] = struct{}{}
	total := len(b.sinks)
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "total_subscribers", total)
	return nil
}

// Unsubscribe removes the sink if present; no-op otherwise.
func (b *Bus) Unsubscribe(s Sink) {
	b.mu.Lock()
	_, ok := b.sinks[s]
	delete(b.sinks, s)
	total := len(b.sinks)
	b.mu.Unlock()

	if ok {
		b.logger.Debug("subscriber removed", "total_subscribers", total)
	}
}

// SubscriberCount returns the current number of live sinks.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sinks)
}

// Emit validates the envelope and delivers it to every sink live at the
// instant delivery begins. A delivery failure on one sink removes that sink
// but never prevents delivery to the others and never propagates to the
// caller. Only a validation failure returns an error, wrapping
// ErrInvalidEnvelope; nothing is delivered in that case.
func (b *Bus) Emit(ev *Envelope) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	// Snapshot under read lock so slow sinks never hold up subscription churn.
	b.mu.RLock()
	targets := make([]Sink, 0, len(b.sinks))
	for s := range b.sinks {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	var dead []Sink
	for _, s := range targets {
		if err := s.Deliver(ev); err != nil {
			b.logger.Debug("dropping dead subscriber", "type", ev.Type, "error", err)
			dead = append(dead, s)
			if b.onSinkFailure != nil {
				b.onSinkFailure()
			}
		}
	}

	if len(dead) > 0 {
		b.mu.Lock()
		for _, s := range dead {
			delete(b.sinks, s)
		}
		b.mu.Unlock()
	}

	if b.onEmit != nil {
		b.onEmit()
	}
	return nil
}
