// Package server exposes the hub over HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /agents
//	POST /agents/{id}/start
//	POST /agents/{id}/cancel
//	POST /agents/{id}/input
//	GET  /actions
//	GET  /actions/{name}
//	POST /actions/{name}
//	GET  /signals
//	GET  /signals/{name}
//	POST /signals/webhook/{name}
//	GET  /state
//	GET  /state/{key}
//	GET  /events      (WebSocket)
//	GET  /bindings
//	POST /panel/press/{key}
//	GET  /metrics     (when enabled)
//
// Unknown names map to 404, payload validation failures to 400 (and are
// additionally broadcast on the bus as error events), everything else to 500.
package server
