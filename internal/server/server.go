// ABOUTME: HTTP server exposing the hub's agents, actions, signals, and state.
// ABOUTME: Wires routes, maps domain errors to status codes, handles shutdown.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/hearth/internal/bindings"
	"github.com/2389/hearth/internal/config"
	"github.com/2389/hearth/internal/dedupe"
	"github.com/2389/hearth/internal/event"
	"github.com/2389/hearth/internal/orchestrator"
	"github.com/2389/hearth/internal/registry"
)

// Options carries the components the server exposes over HTTP.
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Actions      *registry.ActionRegistry
	Signals      *registry.SignalRegistry
	Bindings     *bindings.Resolver
	Deliveries   *dedupe.Tracker
	Config       config.ServerConfig
	Metrics      config.MetricsConfig
	Logger       *slog.Logger
}

// Server is the HTTP front of the hub. All state lives in the components
// passed via Options; the server itself only translates HTTP to them.
type Server struct {
	orch       *orchestrator.Orchestrator
	actions    *registry.ActionRegistry
	signals    *registry.SignalRegistry
	bindings   *bindings.Resolver
	deliveries *dedupe.Tracker
	logger     *slog.Logger

	shutdownTimeout time.Duration
	httpServer      *http.Server
}

// New creates a Server listening on the configured address. Call Run to
// start serving.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		orch:            opts.Orchestrator,
		actions:         opts.Actions,
		signals:         opts.Signals,
		bindings:        opts.Bindings,
		deliveries:      opts.Deliveries,
		logger:          logger.With("component", "server"),
		shutdownTimeout: opts.Config.ShutdownTimeout,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 10 * time.Second
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/agents", s.handleListAgents)
	mux.HandleFunc("/agents/", s.handleAgentCommand)
	mux.HandleFunc("/actions", s.handleListActions)
	mux.HandleFunc("/actions/", s.handleAction)
	mux.HandleFunc("/signals", s.handleListSignals)
	mux.HandleFunc("/signals/", s.handleSignal)
	mux.HandleFunc("/state", s.handleListState)
	mux.HandleFunc("/state/", s.handleGetState)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/bindings", s.handleListBindings)
	mux.HandleFunc("/panel/press/", s.handlePanelPress)

	if opts.Metrics.Enabled {
		mux.Handle(opts.Metrics.Path, promhttp.Handler())
	}

	s.httpServer = &http.Server{
		Addr:              opts.Config.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the route table, used by tests and embedding callers.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// handleHealth returns 200 with a small status document.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"agents":      len(s.orch.ListAgents()),
		"subscribers": s.orch.Bus().SubscriberCount(),
	})
}

// writeJSON writes v as a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// sendDomainError maps a component error onto an HTTP status. Validation
// failures are additionally broadcast on the bus so panels can surface them.
func (s *Server) sendDomainError(w http.ResponseWriter, err error, source event.Source) {
	switch {
	case errors.Is(err, orchestrator.ErrAgentNotFound),
		errors.Is(err, registry.ErrActionNotFound),
		errors.Is(err, registry.ErrSignalNotFound):
		s.sendJSONError(w, http.StatusNotFound, err.Error())
	case registry.IsValidation(err):
		if emitErr := s.orch.Bus().Emit(event.NewError("validation", err.Error(), source, nil)); emitErr != nil {
			s.logger.Warn("failed to broadcast validation error", "error", emitErr)
		}
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody decodes an optional JSON object body. An empty body yields an
// empty map so handlers never see nil payloads.
func decodeBody(r *http.Request) (map[string]any, error) {
	payload := map[string]any{}
	if r.Body == nil {
		return payload, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, errors.New("invalid JSON body")
	}
	return payload, nil
}
