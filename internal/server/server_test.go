// ABOUTME: Tests for the HTTP surface: routing, status mapping, and payloads.
// ABOUTME: Exercises the full stack behind the handlers with a mock agent.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/hearth/internal/agent"
	"github.com/2389/hearth/internal/bindings"
	"github.com/2389/hearth/internal/config"
	"github.com/2389/hearth/internal/dedupe"
	"github.com/2389/hearth/internal/event"
	"github.com/2389/hearth/internal/orchestrator"
	"github.com/2389/hearth/internal/plugin"
	"github.com/2389/hearth/internal/registry"
	"github.com/2389/hearth/internal/state"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))

	bus := event.NewBus(logger)
	store := state.NewStore(bus, logger)
	t.Cleanup(store.Close)

	orch := orchestrator.New(bus, store, logger)

	fastWork := func(ctx context.Context) error {
		select {
		case <-time.After(time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	orch.RegisterAgent(agent.NewMock("mock-1", agent.WithWork(fastWork), agent.WithLogger(logger)))

	actions := registry.NewActionRegistry(orch, logger)
	signals := registry.NewSignalRegistry(logger)

	reg := &plugin.Registry{
		Actions:      actions,
		Signals:      signals,
		State:        store,
		Events:       bus,
		Orchestrator: orch,
	}
	require.NoError(t, plugin.Load([]string{"builtin"}, reg))

	tracker := dedupe.NewTracker(time.Minute, 64)
	t.Cleanup(tracker.Close)

	return New(Options{
		Orchestrator: orch,
		Actions:      actions,
		Signals:      signals,
		Bindings:     bindings.NewResolver(bindings.Defaults()),
		Deliveries:   tracker,
		Config:       config.ServerConfig{ListenAddr: "127.0.0.1:0"},
		Logger:       logger,
	})
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&m))
	return m
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeMap(t, rec)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(1), resp["agents"])
}

func TestListAgents(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []agent.Info
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "mock-1", infos[0].ID)
	assert.Equal(t, agent.StatusIdle, infos[0].Status)
}

func TestAgentStartAndCancel(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/agents/mock-1/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "accepted", decodeMap(t, rec)["status"])

	rec = doRequest(t, s, http.MethodPost, "/agents/mock-1/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAgentCommandUnknownAgent(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/agents/ghost/start", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeMap(t, rec)["error"], "agent not found")
}

func TestAgentInputRequiresText(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/agents/mock-1/input", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text is required", decodeMap(t, rec)["error"])
}

func TestAgentCommandUnknownVerb(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/agents/mock-1/reboot", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListActionsIncludesBuiltins(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/actions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var metas []registry.Metadata
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&metas))

	names := make([]string, len(metas))
	for i, m := range metas {
		names[i] = m.Name
	}
	assert.Contains(t, names, "agent.start")
	assert.Contains(t, names, "ui.open_url")
}

func TestGetActionMetadata(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/actions/agent.input", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var meta registry.Metadata
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&meta))
	assert.Equal(t, "agent.input", meta.Name)
	assert.Contains(t, meta.PayloadSchema, "text")

	rec = doRequest(t, s, http.MethodGet, "/actions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunActionValidationBroadcastsError(t *testing.T) {
	s := newTestServer(t)

	sink := event.NewChanSink()
	require.NoError(t, s.orch.Bus().Subscribe(context.Background(), sink))

	rec := doRequest(t, s, http.MethodPost, "/actions/ui.open_url", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	select {
	case ev := <-sink.Events():
		assert.Equal(t, "error", ev.Type)
		assert.Equal(t, "validation", ev.Payload["error_type"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error broadcast")
	}
}

func TestRunActionNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/actions/no.such.action", map[string]any{})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunActionInvalidJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/actions/ui.open_url", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", decodeMap(t, rec)["error"])
}

func TestWebhookSignalSetsState(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/signals/webhook/camera.motion", map[string]any{
		"key":    "camera.back.motion",
		"active": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/state/camera.back.motion", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entry state.Entry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entry))
	assert.Equal(t, map[string]any{"active": true}, entry.Value)
}

func TestWebhookDuplicateDeliverySuppressed(t *testing.T) {
	s := newTestServer(t)

	send := func() *httptest.ResponseRecorder {
		body, err := json.Marshal(map[string]any{"key": "k", "active": true})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/signals/webhook/camera.motion", bytes.NewReader(body))
		req.Header.Set("X-Delivery-ID", "dv-42")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	rec := send()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeMap(t, rec)["status"])

	rec = send()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "duplicate", decodeMap(t, rec)["status"])
}

func TestWebhookUnknownSignal(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/signals/webhook/no.such.signal", map[string]any{})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSignalMetadata(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/signals/camera.motion", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var meta registry.Metadata
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&meta))
	assert.Equal(t, "camera.motion", meta.Name)

	rec = doRequest(t, s, http.MethodGet, "/signals/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStateListAndGet(t *testing.T) {
	s := newTestServer(t)

	require.NoError(t, s.orch.Store().Set("room.temp", 21.5, 0, event.Source{}))

	rec := doRequest(t, s, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []state.Entry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "room.temp", entries[0].Key)

	rec = doRequest(t, s, http.MethodGet, "/state/missing.key", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStateListEmptyIsArray(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestListBindings(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/bindings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var bs []bindings.Binding
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&bs))
	assert.Equal(t, bindings.Defaults(), bs)
}

func TestPanelPressRunsActionAndReportsIndicator(t *testing.T) {
	s := newTestServer(t)

	require.NoError(t, s.orch.Store().Set("camera.front_door.motion", true, 0, event.Source{}))

	rec := doRequest(t, s, http.MethodPost, "/panel/press/front-door", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp pressResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ui.open_url", resp.Action)
	require.NotNil(t, resp.Indicator)
	assert.Equal(t, true, resp.Indicator.Value)
}

func TestPanelPressUnknownKey(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/panel/press/no-such-key", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/agents", "/actions", "/signals", "/state", "/bindings"} {
		rec := doRequest(t, s, http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "path %s", path)
	}

	rec := doRequest(t, s, http.MethodGet, "/panel/press/front-door", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Give the listener a moment to come up, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
