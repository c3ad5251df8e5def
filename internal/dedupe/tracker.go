// ABOUTME: TTL tracker for webhook delivery IDs to suppress redelivered signals.
// ABOUTME: Size-bounded with O(1) oldest-first eviction via a linked list.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a delivery ID stays suppressed after first sight.
	DefaultTTL = 5 * time.Minute

	// DefaultMaxEntries bounds the tracker when senders never repeat IDs.
	DefaultMaxEntries = 4096

	sweepInterval = time.Minute
)

type record struct {
	seenAt  time.Time
	element *list.Element
}

// Tracker remembers webhook delivery IDs for a TTL so redelivered signals
// are processed at most once. IDs are scoped per signal name. When the
// tracker fills up, the oldest ID is evicted first.
type Tracker struct {
	mu      sync.Mutex
	seen    map[string]*record
	order   *list.List
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
	now     func() time.Time
}

// NewTracker creates a tracker with the given TTL and size bound. Values of
// zero or less fall back to the defaults. A background goroutine sweeps
// expired IDs; call Close to stop it.
func NewTracker(ttl time.Duration, maxSize int) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxEntries
	}
	t := &Tracker{
		seen:    make(map[string]*record),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go t.sweep()
	return t
}

// Seen reports whether the delivery ID for the signal was already processed
// within the TTL. New IDs are recorded before returning, so the check and the
// mark are a single atomic step.
func (t *Tracker) Seen(signal, deliveryID string) bool {
	key := signal + "\x00" + deliveryID

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if rec, ok := t.seen[key]; ok && now.Sub(rec.seenAt) < t.ttl {
		return true
	}
	t.recordLocked(key, now)
	return false
}

// Len returns the number of tracked IDs, expired or not.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

func (t *Tracker) recordLocked(key string, now time.Time) {
	if rec, ok := t.seen[key]; ok {
		rec.seenAt = now
		t.order.MoveToBack(rec.element)
		return
	}
	if len(t.seen) >= t.maxSize {
		t.evictOldestLocked()
	}
	elem := t.order.PushBack(key)
	t.seen[key] = &record{seenAt: now, element: elem}
}

func (t *Tracker) evictOldestLocked() {
	front := t.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	t.order.Remove(front)
	delete(t.seen, key)
}

func (t *Tracker) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.dropExpired()
		case <-t.done:
			return
		}
	}
}

func (t *Tracker) dropExpired() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, rec := range t.seen {
		if now.Sub(rec.seenAt) >= t.ttl {
			t.order.Remove(rec.element)
			delete(t.seen, key)
		}
	}
}

// Close stops the sweep goroutine. Safe to call more than once.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	close(t.done)
}
