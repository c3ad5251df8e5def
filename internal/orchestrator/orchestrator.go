// ABOUTME: Owns the agent collection and routes lifecycle commands by agent id.
// ABOUTME: Wires each registered agent's outgoing events into the shared bus.

package orchestrator

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/2389/hearth/internal/agent"
	"github.com/2389/hearth/internal/event"
	"github.com/2389/hearth/internal/state"
)

// ErrAgentNotFound indicates the specified agent id is not registered.
var ErrAgentNotFound = errors.New("agent not found")

// Orchestrator mediates between external commands and agent lifecycles. It
// owns the shared event bus and state store so registries and plugins reach
// them through a single handle.
type Orchestrator struct {
	mu     sync.RWMutex
	agents map[string]agent.Agent

	bus    *event.Bus
	store  *state.Store
	logger *slog.Logger
}

// New creates an orchestrator around the shared bus and store.
func New(bus *event.Bus, store *state.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		agents: make(map[string]agent.Agent),
		bus:    bus,
		store:  store,
		logger: logger.With("component", "orchestrator"),
	}
}

// Bus returns the shared event bus.
func (o *Orchestrator) Bus() *event.Bus { return o.bus }

// Store returns the shared state store.
func (o *Orchestrator) Store() *state.Store { return o.store }

// RegisterAgent wires the agent's emitter into the bus and stores it by id.
// Re-registering an id replaces the prior agent without stopping it; stopping
// first is the caller's responsibility.
func (o *Orchestrator) RegisterAgent(a agent.Agent) {
	a.SetEmitter(func(ev *event.Envelope) {
		if err := o.bus.Emit(ev); err != nil {
			o.logger.Warn("dropping malformed agent event", "agent_id", a.ID(), "error", err)
		}
	})

	o.mu.Lock()
	_, replaced := o.agents[a.ID()]
	o.agents[a.ID()] = a
	total := len(o.agents)
	o.mu.Unlock()

	o.logger.Info("agent registered",
		"agent_id", a.ID(),
		"type", a.Type(),
		"capabilities", a.Capabilities(),
		"replaced", replaced,
		"total_agents", total,
	)
}

// ListAgents returns a snapshot of every registered agent, sorted by id for
// deterministic enumeration.
func (o *Orchestrator) ListAgents() []agent.Agent {
	o.mu.RLock()
	agents := make([]agent.Agent, 0, len(o.agents))
	for _, a := range o.agents {
		agents = append(agents, a)
	}
	o.mu.RUnlock()

	sort.Slice(agents, func(i, j int) bool { return agents[i].ID() < agents[j].ID() })
	return agents
}

// GetAgent retrieves a specific agent by id.
func (o *Orchestrator) GetAgent(id string) (agent.Agent, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	a, ok := o.agents[id]
	return a, ok
}

// StartAgent starts the agent's run sequence. Returns ErrAgentNotFound for an
// unknown id.
func (o *Orchestrator) StartAgent(id string) error {
	a, ok := o.GetAgent(id)
	if !ok {
		return ErrAgentNotFound
	}
	return a.Start()
}

// CancelAgent cancels any in-flight run. Returns ErrAgentNotFound for an
// unknown id.
func (o *Orchestrator) CancelAgent(id string) error {
	a, ok := o.GetAgent(id)
	if !ok {
		return ErrAgentNotFound
	}
	return a.Cancel()
}

// ProvideInput forwards input text to an agent awaiting it. Returns
// ErrAgentNotFound for an unknown id.
func (o *Orchestrator) ProvideInput(id, text string) error {
	a, ok := o.GetAgent(id)
	if !ok {
		return ErrAgentNotFound
	}
	return a.ProvideInput(text)
}
