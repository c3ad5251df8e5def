// ABOUTME: Mock agent simulating a run sequence gated on external input.
// ABOUTME: Reference lifecycle: running, awaiting_input, running, idle.

package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/hearth/internal/event"
)

// defaultWorkDelay is how long each simulated work step takes.
const defaultWorkDelay = 500 * time.Millisecond

// WorkFunc is one cancellable work step of the mock run sequence. Returning an
// error drives the agent into the error status.
type WorkFunc func(ctx context.Context) error

// MockOption configures a Mock agent.
type MockOption func(*Mock)

// WithWork replaces the simulated work step. Used by tests to shrink delays or
// inject failures.
func WithWork(work WorkFunc) MockOption {
	return func(m *Mock) { m.work = work }
}

// WithLogger sets the agent's logger.
func WithLogger(logger *slog.Logger) MockOption {
	return func(m *Mock) { m.logger = logger.With("component", "agent", "agent_id", m.id) }
}

// WithCapabilities replaces the advertised capability list.
func WithCapabilities(caps []string) MockOption {
	return func(m *Mock) {
		if len(caps) > 0 {
			m.caps = caps
		}
	}
}

// Mock simulates a simple lifecycle with input gating: Start drives the agent
// running, a work step later it parks in awaiting_input, ProvideInput resumes
// it, and after a final work step it completes back to idle.
type Mock struct {
	id   string
	work WorkFunc
	caps []string

	mu      sync.Mutex
	status  Status
	emit    Emitter
	cancel  context.CancelFunc
	input   chan string
	running bool

	logger *slog.Logger
}

// NewMock creates a mock agent with default capabilities accepts_text and
// cancellable.
func NewMock(id string, opts ...MockOption) *Mock {
	m := &Mock{
		id:     id,
		status: StatusIdle,
		caps:   []string{"accepts_text", "cancellable"},
		logger: slog.Default().With("component", "agent", "agent_id", id),
	}
	m.work = func(ctx context.Context) error {
		select {
		case <-time.After(defaultWorkDelay):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mock) ID() string   { return m.id }
func (m *Mock) Type() string { return "mock" }

func (m *Mock) Capabilities() []string {
	return m.caps
}

func (m *Mock) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Mock) Info() Info {
	return Info{
		ID:           m.id,
		Type:         m.Type(),
		Status:       m.Status(),
		Capabilities: m.Capabilities(),
	}
}

// SetEmitter wires outgoing lifecycle events. Must be called before Start.
func (m *Mock) SetEmitter(emit Emitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emit = emit
}

// Start spawns the run sequence. No-op when a run is already in flight;
// starting from the error status recovers the agent.
func (m *Mock) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.input = make(chan string, 1)
	m.running = true
	input := m.input
	m.mu.Unlock()

	go m.run(ctx, input)
	return nil
}

// Cancel terminates the run task and settles the agent in idle, emitting
// agent.cancelled. No-op when nothing is running.
func (m *Mock) Cancel() error {
	m.mu.Lock()
	if !m.running || m.cancel == nil {
		m.mu.Unlock()
		return nil
	}
	// Cancelling the context under the lock means the run goroutine, whose
	// status writes check the context under this same lock, can no longer
	// transition; the cancel path owns the settle into idle, so the agent is
	// never left in awaiting_input.
	m.cancel()
	m.cancel = nil
	m.status = StatusIdle
	m.mu.Unlock()

	m.emitStatus()
	m.emitEvent(event.New("agent.cancelled",
		event.Source{Kind: "agent", ID: m.id},
		map[string]any{"agent": m.Info()}))
	return nil
}

// ProvideInput resumes a run parked in awaiting_input and emits
// agent.input_received. In any other status it is a silent no-op.
func (m *Mock) ProvideInput(text string) error {
	m.mu.Lock()
	if m.status != StatusAwaitingInput {
		m.mu.Unlock()
		return nil
	}
	input := m.input
	m.mu.Unlock()

	// Single pending wait per run: the channel is 1-buffered, and only the
	// first ProvideInput to observe awaiting_input lands its value.
	select {
	case input <- text:
	default:
		return nil
	}

	m.emitEvent(event.New("agent.input_received",
		event.Source{Kind: "agent", ID: m.id},
		map[string]any{"agent": m.Info(), "input": text}))
	return nil
}

func (m *Mock) run(ctx context.Context, input chan string) {
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	if !m.transition(ctx, StatusRunning) {
		return
	}
	if err := m.work(ctx); err != nil {
		m.fail(ctx, err)
		return
	}

	if !m.transition(ctx, StatusAwaitingInput) {
		return
	}

	var text string
	select {
	case text = <-input:
	case <-ctx.Done():
		return
	}

	if !m.transition(ctx, StatusRunning) {
		return
	}
	if err := m.work(ctx); err != nil {
		m.fail(ctx, err)
		return
	}

	if !m.transition(ctx, StatusIdle) {
		return
	}
	m.emitEvent(event.New("agent.completed",
		event.Source{Kind: "agent", ID: m.id},
		map[string]any{"agent": m.Info(), "input": text}))
}

// transition applies a run-sequence status change and emits
// agent.status_changed. Returns false without writing when the run has been
// cancelled; the check and the write share the agent lock with Cancel.
func (m *Mock) transition(ctx context.Context, status Status) bool {
	m.mu.Lock()
	if ctx.Err() != nil {
		m.mu.Unlock()
		return false
	}
	m.status = status
	m.mu.Unlock()

	m.emitStatus()
	return true
}

// fail handles a failed work step: cancellation belongs to Cancel, anything
// else parks the agent in error.
func (m *Mock) fail(ctx context.Context, err error) {
	if !m.transition(ctx, StatusError) {
		return
	}
	m.logger.Warn("run sequence failed", "error", err)
	m.emitEvent(event.New("agent.error",
		event.Source{Kind: "agent", ID: m.id},
		map[string]any{"agent": m.Info(), "message": err.Error()}))
}

// emitStatus announces the current status on the bus.
func (m *Mock) emitStatus() {
	m.emitEvent(event.New("agent.status_changed",
		event.Source{Kind: "agent", ID: m.id},
		map[string]any{"agent": m.Info()}))
}

func (m *Mock) emitEvent(ev *event.Envelope) {
	m.mu.Lock()
	emit := m.emit
	m.mu.Unlock()
	if emit != nil {
		emit(ev)
	}
}
