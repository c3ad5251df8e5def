// Package agent defines the lifecycle state machine for long-running hub
// agents and provides the mock agent used for panels and tests.
//
// # Lifecycle
//
// Agents move through four statuses: idle (initial and resting), running,
// awaiting_input, and error. A run sequence executes on its own goroutine and
// is the only writer of the agent's status; Cancel and ProvideInput may be
// called from any goroutine. Every transition emits agent.status_changed, and
// normal termination emits agent.completed. Failures inside the run sequence
// settle the agent in error with an agent.error event; error is not terminal,
// and a later Start recovers the agent.
package agent
