// Package orchestrator coordinates agent lifecycles and owns the shared event
// bus and state store that every other hub component reaches through it.
package orchestrator
