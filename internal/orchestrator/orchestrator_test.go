// ABOUTME: Tests for orchestrator agent registration and command routing.
// ABOUTME: Covers bus wiring, not-found errors, and re-registration semantics.

package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/hearth/internal/agent"
	"github.com/2389/hearth/internal/event"
	"github.com/2389/hearth/internal/state"
)

func fastWork(ctx context.Context) error {
	select {
	case <-time.After(time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *event.ChanSink) {
	t.Helper()
	bus := event.NewBus(nil)
	store := state.NewStore(bus, nil)
	t.Cleanup(store.Close)
	sink := event.NewChanSink()
	require.NoError(t, bus.Subscribe(context.Background(), sink))
	return New(bus, store, nil), sink
}

func waitForStatus(t *testing.T, a agent.Agent, want agent.Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.Status() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("agent never reached %s, stuck at %s", want, a.Status())
}

func TestOrchestrator_RegisteredAgentEventsReachBus(t *testing.T) {
	o, sink := newTestOrchestrator(t)

	m := agent.NewMock("mock-1", agent.WithWork(fastWork))
	o.RegisterAgent(m)

	require.NoError(t, o.StartAgent("mock-1"))
	waitForStatus(t, m, agent.StatusAwaitingInput)

	select {
	case ev := <-sink.Events():
		assert.Equal(t, "agent.status_changed", ev.Type)
		assert.Equal(t, event.Source{Kind: "agent", ID: "mock-1"}, ev.Source)
	case <-time.After(time.Second):
		t.Fatal("no lifecycle event reached the bus")
	}

	require.NoError(t, o.CancelAgent("mock-1"))
}

func TestOrchestrator_CommandsOnUnknownAgent(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	assert.ErrorIs(t, o.StartAgent("ghost"), ErrAgentNotFound)
	assert.ErrorIs(t, o.CancelAgent("ghost"), ErrAgentNotFound)
	assert.ErrorIs(t, o.ProvideInput("ghost", "hello"), ErrAgentNotFound)
}

func TestOrchestrator_ProvideInputRoutesToAgent(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	m := agent.NewMock("mock-1", agent.WithWork(fastWork))
	o.RegisterAgent(m)

	require.NoError(t, o.StartAgent("mock-1"))
	waitForStatus(t, m, agent.StatusAwaitingInput)
	require.NoError(t, o.ProvideInput("mock-1", "resume"))
	waitForStatus(t, m, agent.StatusIdle)
}

func TestOrchestrator_ListAgentsSortedByID(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	o.RegisterAgent(agent.NewMock("mock-2"))
	o.RegisterAgent(agent.NewMock("mock-1"))

	agents := o.ListAgents()
	require.Len(t, agents, 2)
	assert.Equal(t, "mock-1", agents[0].ID())
	assert.Equal(t, "mock-2", agents[1].ID())
}

func TestOrchestrator_ReregisterReplacesAgent(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	first := agent.NewMock("mock-1")
	second := agent.NewMock("mock-1")
	o.RegisterAgent(first)
	o.RegisterAgent(second)

	got, ok := o.GetAgent("mock-1")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Len(t, o.ListAgents(), 1)
}
