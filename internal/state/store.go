// ABOUTME: TTL-based in-memory state store driving indicators and subscribers.
// ABOUTME: Every logical transition is announced on the event bus exactly once.

package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/2389/hearth/internal/event"
)

// clearQueueSize bounds the best-effort notification queue for lazy-expiry
// purges. When the queue is full the notification is dropped rather than
// blocking or failing the read that triggered the purge.
const clearQueueSize = 128

// Entry is the stored record for a single key. Writes replace the entry
// wholesale; there are no partial updates.
type Entry struct {
	Key       string     `json:"key"`
	Value     any        `json:"value"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (e Entry) expired(now time.Time) bool {
	return e.ExpiresAt != nil && !e.ExpiresAt.After(now)
}

func (e Entry) payload() map[string]any {
	p := map[string]any{
		"key":        e.Key,
		"value":      e.Value,
		"updated_at": e.UpdatedAt,
	}
	if e.ExpiresAt != nil {
		p["expires_at"] = *e.ExpiresAt
	}
	return p
}

// Store holds the latest value per key with optional expiry. Expired entries
// are purged lazily at the start of every read; a key that is never read again
// after expiring lingers in memory and its state.cleared event never fires.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	bus     *event.Bus
	logger  *slog.Logger

	clearQueue chan *event.Envelope
	done       chan struct{}
	closeOnce  sync.Once

	// onExpire is an optional metrics hook, counted per purged key.
	onExpire func()

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewStore creates a state store that announces transitions on bus. The
// returned store owns a background goroutine draining expiry notifications;
// call Close during shutdown.
func NewStore(bus *event.Bus, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		entries:    make(map[string]Entry),
		bus:        bus,
		logger:     logger.With("component", "state"),
		clearQueue: make(chan *event.Envelope, clearQueueSize),
		done:       make(chan struct{}),
		now:        time.Now,
	}
	go s.drainClearQueue()
	return s
}

// SetExpireHook installs an optional counter invoked once per lazily purged
// key. Must be called before the store is shared.
func (s *Store) SetExpireHook(fn func()) {
	s.onExpire = fn
}

// Set replaces the entry for key and emits a state.changed envelope carrying
// the full new entry. A zero ttl means the entry never expires. Source
// defaults to {state, key} when the zero value is passed.
func (s *Store) Set(key string, value any, ttl time.Duration, source event.Source) error {
	now := s.now().UTC()
	entry := Entry{Key: key, Value: value, UpdatedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		entry.ExpiresAt = &exp
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()

	if source == (event.Source{}) {
		source = event.Source{Kind: "state", ID: key}
	}
	return s.bus.Emit(event.New("state.changed", source, entry.payload()))
}

// Clear removes the key if present. The state.cleared envelope is emitted even
// when the key was absent.
func (s *Store) Clear(key string, source event.Source) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	if source == (event.Source{}) {
		source = event.Source{Kind: "state", ID: key}
	}
	return s.bus.Emit(event.New("state.cleared", source, map[string]any{"key": key}))
}

// Get purges expired entries, then returns the entry for key. The second
// return is false when the key is absent or expired.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.Lock()
	s.purgeLocked()
	entry, ok := s.entries[key]
	s.mu.Unlock()
	return entry, ok
}

// List purges expired entries, then returns all remaining entries. Order is
// unspecified.
func (s *Store) List() []Entry {
	s.mu.Lock()
	s.purgeLocked()
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()
	return entries
}

// purgeLocked removes every logically expired entry and queues a best-effort
// state.cleared notification for each. Must be called with mu held. The queue
// is bounded and droppable so reads never block on slow subscribers.
func (s *Store) purgeLocked() {
	now := s.now()
	for key, entry := range s.entries {
		if !entry.expired(now) {
			continue
		}
		delete(s.entries, key)
		if s.onExpire != nil {
			s.onExpire()
		}

		ev := event.New("state.cleared", event.Source{Kind: "state", ID: key},
			map[string]any{"key": key})
		select {
		case s.clearQueue <- ev:
		default:
			s.logger.Debug("dropped expiry notification, queue full", "key", key)
		}
	}
}

// drainClearQueue forwards queued expiry notifications to the bus.
func (s *Store) drainClearQueue() {
	for {
		select {
		case ev := <-s.clearQueue:
			if err := s.bus.Emit(ev); err != nil {
				s.logger.Warn("emitting expiry notification", "error", err)
			}
		case <-s.done:
			return
		}
	}
}

// Close stops the expiry notification goroutine. Safe to call multiple times.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
