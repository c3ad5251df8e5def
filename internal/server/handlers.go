// ABOUTME: Route handlers for agents, actions, signals, state, and panel keys.
// ABOUTME: Thin translation layer; all behavior lives in the core packages.

package server

import (
	"net/http"
	"strings"

	"github.com/2389/hearth/internal/agent"
	"github.com/2389/hearth/internal/event"
	"github.com/2389/hearth/internal/metrics"
	"github.com/2389/hearth/internal/state"
)

// handleListAgents handles GET /agents.
func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	agents := s.orch.ListAgents()
	response := make([]agent.Info, 0, len(agents))
	for _, a := range agents {
		response = append(response, a.Info())
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleAgentCommand handles POST /agents/{id}/start, /agents/{id}/cancel,
// and /agents/{id}/input.
func (s *Server) handleAgentCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/agents/")
	agentID, command, ok := strings.Cut(rest, "/")
	if !ok || agentID == "" {
		s.sendJSONError(w, http.StatusBadRequest, "expected /agents/{id}/{command}")
		return
	}

	source := event.Source{Kind: "api", ID: r.URL.Path}

	var err error
	switch command {
	case "start":
		err = s.orch.StartAgent(agentID)
	case "cancel":
		err = s.orch.CancelAgent(agentID)
	case "input":
		payload, decodeErr := decodeBody(r)
		if decodeErr != nil {
			s.sendJSONError(w, http.StatusBadRequest, decodeErr.Error())
			return
		}
		text, _ := payload["text"].(string)
		if text == "" {
			s.sendJSONError(w, http.StatusBadRequest, "text is required")
			return
		}
		err = s.orch.ProvideInput(agentID, text)
	default:
		s.sendJSONError(w, http.StatusBadRequest, "unknown command "+command)
		return
	}

	if err != nil {
		s.sendDomainError(w, err, source)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "accepted", "agent_id": agentID})
}

// handleListActions handles GET /actions.
func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.actions.List())
}

// handleAction handles GET /actions/{name} and POST /actions/{name}.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/actions/")
	if name == "" || strings.Contains(name, "/") {
		s.sendJSONError(w, http.StatusBadRequest, "expected /actions/{name}")
		return
	}

	switch r.Method {
	case http.MethodGet:
		meta, ok := s.actions.Metadata(name)
		if !ok {
			s.sendJSONError(w, http.StatusNotFound, "action not found: "+name)
			return
		}
		s.writeJSON(w, http.StatusOK, meta)

	case http.MethodPost:
		payload, err := decodeBody(r)
		if err != nil {
			s.sendJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		source := event.Source{Kind: "action", ID: name}
		if err := s.actions.Run(r.Context(), name, payload); err != nil {
			s.sendDomainError(w, err, source)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "action": name})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleListSignals handles GET /signals.
func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.signals.List())
}

// handleSignal handles GET /signals/{name} and POST /signals/webhook/{name}.
func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/signals/")

	if name, isWebhook := strings.CutPrefix(rest, "webhook/"); isWebhook {
		s.handleWebhook(w, r, name)
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		s.sendJSONError(w, http.StatusBadRequest, "expected /signals/{name}")
		return
	}

	meta, ok := s.signals.Metadata(rest)
	if !ok {
		s.sendJSONError(w, http.StatusNotFound, "signal not found: "+rest)
		return
	}
	s.writeJSON(w, http.StatusOK, meta)
}

// handleWebhook dispatches POST /signals/webhook/{name}. Deliveries carrying
// an X-Delivery-ID header are deduplicated; a repeat returns 200 without
// re-dispatching so webhook senders can retry safely.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if name == "" || strings.Contains(name, "/") {
		s.sendJSONError(w, http.StatusBadRequest, "expected /signals/webhook/{name}")
		return
	}

	if deliveryID := r.Header.Get("X-Delivery-ID"); deliveryID != "" && s.deliveries != nil {
		if s.deliveries.Seen(name, deliveryID) {
			metrics.DuplicateDeliveries.WithLabelValues(name).Inc()
			s.logger.Debug("duplicate webhook delivery suppressed", "signal", name, "delivery_id", deliveryID)
			s.writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate", "signal": name})
			return
		}
	}

	payload, err := decodeBody(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	source := event.Source{Kind: "signal", ID: name}
	if err := s.signals.Handle(r.Context(), name, payload); err != nil {
		s.sendDomainError(w, err, source)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "signal": name})
}

// handleListState handles GET /state.
func (s *Server) handleListState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entries := s.orch.Store().List()
	if entries == nil {
		entries = []state.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// handleGetState handles GET /state/{key}. Keys may contain dots but not
// slashes, matching the signal naming convention.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/state/")
	if key == "" {
		s.sendJSONError(w, http.StatusBadRequest, "expected /state/{key}")
		return
	}

	entry, ok := s.orch.Store().Get(key)
	if !ok {
		s.sendJSONError(w, http.StatusNotFound, "no state for key: "+key)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

// handleListBindings handles GET /bindings.
func (s *Server) handleListBindings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.bindings.All())
}

// pressResponse is the JSON response for POST /panel/press/{key}.
type pressResponse struct {
	Key       string       `json:"key"`
	Action    string       `json:"action"`
	Indicator *state.Entry `json:"indicator,omitempty"`
}

// handlePanelPress handles POST /panel/press/{key}. It resolves the binding
// for the pressed key, runs its action, and returns the indicator state entry
// when the binding names one. Panel clients stay a dumb key-to-HTTP shim.
func (s *Server) handlePanelPress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/panel/press/")
	if key == "" {
		s.sendJSONError(w, http.StatusBadRequest, "expected /panel/press/{key}")
		return
	}

	binding, ok := s.bindings.Resolve(key)
	if !ok {
		s.sendJSONError(w, http.StatusNotFound, "no binding for key: "+key)
		return
	}

	source := event.Source{Kind: "panel", ID: key}
	if err := s.actions.Run(r.Context(), binding.Action, binding.Payload); err != nil {
		s.sendDomainError(w, err, source)
		return
	}

	resp := pressResponse{Key: key, Action: binding.Action}
	if binding.IndicatorKey != "" {
		if entry, ok := s.orch.Store().Get(binding.IndicatorKey); ok {
			resp.Indicator = &entry
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}
