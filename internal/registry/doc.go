// Package registry provides the name-to-handler dispatch tables for actions
// (externally triggered operations) and signals (inbound notifications), each
// carrying advisory payload schemas surfaced to callers.
package registry
