// Package event provides the versioned event envelope and the in-memory
// pub/sub bus that fans envelopes out to subscriber sinks.
//
// # Envelope
//
// Every notification the hub produces travels as an Envelope:
//
//	ev := event.New("state.changed", event.Source{Kind: "state", ID: key}, payload)
//
// Envelopes carry a type from a dotted taxonomy (state.changed, state.cleared,
// agent.status_changed, agent.cancelled, agent.input_received, agent.completed,
// agent.error, error), source attribution, an arbitrary payload map, the
// emission timestamp, and a schema version. They are immutable once built.
//
// # Bus
//
// The Bus delivers every emitted envelope to every subscribed Sink. Delivery
// is best-effort and at-most-once per live sink: a sink whose Deliver fails is
// removed permanently, and one broken sink never blocks delivery to the rest
// or surfaces an error to the emitter.
package event
