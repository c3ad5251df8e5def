// Package state provides the TTL-based key/value store backing panel
// indicators, with change and clear notifications routed through the event bus.
package state
