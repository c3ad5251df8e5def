// ABOUTME: Agent lifecycle contract shared by all long-running agents.
// ABOUTME: Defines statuses, the command surface, and event emission wiring.

package agent

import (
	"github.com/2389/hearth/internal/event"
)

// Status is an agent's lifecycle state. The running task owned by the agent is
// the only writer of its own status.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusRunning       Status = "running"
	StatusAwaitingInput Status = "awaiting_input"
	StatusError         Status = "error"
)

// Emitter receives the agent's lifecycle envelopes, normally wired to the
// event bus by the orchestrator at registration time.
type Emitter func(ev *event.Envelope)

// Agent is a long-lived task with a cancellable lifecycle. Start, Cancel, and
// ProvideInput are safe to call from goroutines other than the one driving the
// agent's run sequence.
type Agent interface {
	ID() string
	Type() string
	Capabilities() []string
	Status() Status
	Info() Info

	// Start spawns the run sequence. Calling Start while a run is already in
	// flight is a no-op.
	Start() error

	// Cancel terminates any in-flight run and settles the agent into idle.
	// No-op when nothing is running.
	Cancel() error

	// ProvideInput unblocks a run waiting in awaiting_input. In any other
	// status it is a silent no-op.
	ProvideInput(text string) error

	// SetEmitter wires the agent's outgoing lifecycle events. Must be called
	// before Start.
	SetEmitter(emit Emitter)
}

// Info is the public snapshot of an agent, used in event payloads and API
// responses.
type Info struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Status       Status   `json:"status"`
	Capabilities []string `json:"capabilities"`
}
