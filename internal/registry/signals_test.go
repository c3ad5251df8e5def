// ABOUTME: Tests for the signal registry dispatch and metadata surface.

package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalRegistry_HandleDispatches(t *testing.T) {
	r := NewSignalRegistry(nil)

	var got map[string]any
	r.Register("camera.motion", func(ctx context.Context, payload map[string]any) error {
		got = payload
		return nil
	}, "motion webhook", Schema{"active": {Type: "boolean", Default: true}})

	require.NoError(t, r.Handle(context.Background(), "camera.motion", map[string]any{"active": false}))
	assert.Equal(t, map[string]any{"active": false}, got)
}

func TestSignalRegistry_UnknownSignalFailsNotFound(t *testing.T) {
	r := NewSignalRegistry(nil)
	err := r.Handle(context.Background(), "no.such.signal", nil)
	assert.ErrorIs(t, err, ErrSignalNotFound)
}

func TestSignalRegistry_ListSortedByName(t *testing.T) {
	r := NewSignalRegistry(nil)
	noop := func(ctx context.Context, payload map[string]any) error { return nil }

	r.Register("zigbee.button", noop, "", nil)
	r.Register("camera.motion", noop, "", nil)
	r.Register("doorbell.ring", noop, "", nil)

	metas := r.List()
	require.Len(t, metas, 3)
	assert.Equal(t, "camera.motion", metas[0].Name)
	assert.Equal(t, "doorbell.ring", metas[1].Name)
	assert.Equal(t, "zigbee.button", metas[2].Name)
}

func TestSignalRegistry_ValidationErrorPropagates(t *testing.T) {
	r := NewSignalRegistry(nil)
	r.Register("strict", func(ctx context.Context, payload map[string]any) error {
		return NewValidationError("key is required")
	}, "", nil)

	err := r.Handle(context.Background(), "strict", nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "key is required", err.Error())
}
