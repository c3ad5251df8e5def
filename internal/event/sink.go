// ABOUTME: Channel-backed sink for in-process subscribers of the event bus.
// ABOUTME: Non-blocking delivery with drop-on-full, matching the hub's best-effort contract.

package event

import (
	"context"
	"errors"
	"sync"
)

// ErrSinkClosed indicates delivery was attempted on a closed sink.
var ErrSinkClosed = errors.New("sink closed")

// chanSinkBuffer is the channel buffer for each in-process subscriber.
const chanSinkBuffer = 64

// ChanSink adapts a buffered channel to the Sink interface for in-process
// consumers. Deliver never blocks: when the buffer is full the envelope is
// dropped for this subscriber and delivery still succeeds.
type ChanSink struct {
	ch chan *Envelope

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewChanSink creates a channel sink with the default buffer size.
func NewChanSink() *ChanSink {
	return &ChanSink{ch: make(chan *Envelope, chanSinkBuffer)}
}

// Open is a no-op handshake; an in-process channel needs no setup.
func (s *ChanSink) Open(ctx context.Context) error {
	return nil
}

// Deliver enqueues the envelope, dropping it when the buffer is full. Returns
// ErrSinkClosed once Close has been called so the bus reclaims the sink.
func (s *ChanSink) Deliver(ev *Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.ch <- ev:
	default:
		s.dropped++
	}
	return nil
}

// Events returns the receive side of the sink.
func (s *ChanSink) Events() <-chan *Envelope {
	return s.ch
}

// Dropped reports how many envelopes were discarded because the buffer was full.
func (s *ChanSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close marks the sink dead and closes its channel. Safe to call once;
// subsequent Deliver calls fail with ErrSinkClosed.
func (s *ChanSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
