// ABOUTME: Tests for the action registry, its built-ins, and dispatch errors.
// ABOUTME: Covers not-found, validation failures, overwrite, and sorted listing.

package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCommander records forwarded lifecycle commands.
type fakeCommander struct {
	started   []string
	cancelled []string
	inputs    map[string]string
	err       error
}

func newFakeCommander() *fakeCommander {
	return &fakeCommander{inputs: make(map[string]string)}
}

func (c *fakeCommander) StartAgent(id string) error {
	c.started = append(c.started, id)
	return c.err
}

func (c *fakeCommander) CancelAgent(id string) error {
	c.cancelled = append(c.cancelled, id)
	return c.err
}

func (c *fakeCommander) ProvideInput(id, text string) error {
	c.inputs[id] = text
	return c.err
}

func TestActionRegistry_BuiltinsRegistered(t *testing.T) {
	r := NewActionRegistry(newFakeCommander(), nil)

	metas := r.List()
	names := make([]string, len(metas))
	for i, m := range metas {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"agent.cancel", "agent.input", "agent.start"}, names)
}

func TestActionRegistry_AgentStartForwards(t *testing.T) {
	cmd := newFakeCommander()
	r := NewActionRegistry(cmd, nil)

	require.NoError(t, r.Run(context.Background(), "agent.start", map[string]any{"agent_id": "mock-1"}))
	assert.Equal(t, []string{"mock-1"}, cmd.started)
}

func TestActionRegistry_AgentStartMissingIDFailsValidation(t *testing.T) {
	cmd := newFakeCommander()
	r := NewActionRegistry(cmd, nil)

	err := r.Run(context.Background(), "agent.start", map[string]any{})
	require.Error(t, err)
	assert.True(t, IsValidation(err), "want validation error, got %v", err)
	assert.Empty(t, cmd.started, "validation must fail before any side effect")
}

func TestActionRegistry_AgentInputRequiresBothFields(t *testing.T) {
	cmd := newFakeCommander()
	r := NewActionRegistry(cmd, nil)

	err := r.Run(context.Background(), "agent.input", map[string]any{"agent_id": "mock-1"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	err = r.Run(context.Background(), "agent.input", map[string]any{"text": "hi"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	require.NoError(t, r.Run(context.Background(), "agent.input",
		map[string]any{"agent_id": "mock-1", "text": "hi"}))
	assert.Equal(t, "hi", cmd.inputs["mock-1"])
}

func TestActionRegistry_UnknownActionFailsNotFound(t *testing.T) {
	r := NewActionRegistry(newFakeCommander(), nil)

	err := r.Run(context.Background(), "no.such.action", map[string]any{})
	assert.ErrorIs(t, err, ErrActionNotFound)
}

func TestActionRegistry_NilPayloadBecomesEmptyMap(t *testing.T) {
	r := NewActionRegistry(newFakeCommander(), nil)

	var got map[string]any
	r.Register("probe", func(ctx context.Context, payload map[string]any) error {
		got = payload
		return nil
	}, "", nil)

	require.NoError(t, r.Run(context.Background(), "probe", nil))
	assert.NotNil(t, got)
}

func TestActionRegistry_ReregisterOverwrites(t *testing.T) {
	r := NewActionRegistry(newFakeCommander(), nil)

	r.Register("custom", func(ctx context.Context, payload map[string]any) error {
		t.Fatal("old handler must not run")
		return nil
	}, "old", nil)

	var ran bool
	r.Register("custom", func(ctx context.Context, payload map[string]any) error {
		ran = true
		return nil
	}, "new", Schema{"x": {Type: "number"}})

	require.NoError(t, r.Run(context.Background(), "custom", nil))
	assert.True(t, ran)

	meta, ok := r.Metadata("custom")
	require.True(t, ok)
	assert.Equal(t, "new", meta.Description)
	assert.Contains(t, meta.PayloadSchema, "x")
}

func TestActionRegistry_MetadataUnknownName(t *testing.T) {
	r := NewActionRegistry(newFakeCommander(), nil)
	_, ok := r.Metadata("missing")
	assert.False(t, ok)
}

func TestActionRegistry_HandlerErrorPropagates(t *testing.T) {
	cmd := newFakeCommander()
	cmd.err = assert.AnError
	r := NewActionRegistry(cmd, nil)

	err := r.Run(context.Background(), "agent.start", map[string]any{"agent_id": "mock-1"})
	assert.ErrorIs(t, err, assert.AnError)
}
