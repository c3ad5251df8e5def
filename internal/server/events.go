// ABOUTME: WebSocket event stream endpoint backed by a bus subscription.
// ABOUTME: A per-connection buffered sink keeps slow clients off the emit path.

package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/2389/hearth/internal/event"
)

const (
	wsSinkBuffer   = 64
	wsWriteTimeout = 5 * time.Second
)

// ErrClientGone is returned by a closed connection sink so the bus drops it.
var ErrClientGone = errors.New("websocket client gone")

// wsSink buffers envelopes between the bus and a websocket writer goroutine.
// Deliver never blocks; events beyond the buffer are dropped.
type wsSink struct {
	mu      sync.Mutex
	ch      chan *event.Envelope
	closed  bool
	dropped int
}

func newWSSink() *wsSink {
	return &wsSink{ch: make(chan *event.Envelope, wsSinkBuffer)}
}

func (s *wsSink) Open(ctx context.Context) error { return nil }

func (s *wsSink) Deliver(ev *event.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClientGone
	}
	select {
	case s.ch <- ev:
	default:
		s.dropped++
	}
	return nil
}

func (s *wsSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *wsSink) droppedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// handleEvents handles GET /events. Each connection gets its own sink on the
// bus and receives every envelope emitted after the subscription, encoded as
// one JSON message per event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}

	clientID := uuid.NewString()
	logger := s.logger.With("client_id", clientID, "remote", r.RemoteAddr)

	sink := newWSSink()
	if err := s.orch.Bus().Subscribe(r.Context(), sink); err != nil {
		logger.Error("failed to subscribe websocket client", "error", err)
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer func() {
		s.orch.Bus().Unsubscribe(sink)
		sink.close()
		logger.Debug("websocket client disconnected", "dropped", sink.droppedCount())
	}()

	logger.Debug("websocket client connected")

	// Clients only listen; CloseRead surfaces disconnects via the context.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev := <-sink.ch:
			writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				s.logger.Debug("websocket write failed", "remote", r.RemoteAddr, "error", err)
				conn.Close(websocket.StatusAbnormalClosure, "write failed")
				return
			}
		}
	}
}
