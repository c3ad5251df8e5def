// ABOUTME: Versioned event envelope and source attribution types.
// ABOUTME: Constructors for regular and error envelopes plus shape validation.

package event

import (
	"errors"
	"fmt"
	"time"
)

// Version is the envelope schema version stamped on every event.
const Version = "1.0"

// ErrInvalidEnvelope indicates an envelope failed shape validation.
var ErrInvalidEnvelope = errors.New("invalid event envelope")

// Source attributes an envelope to whoever raised it.
type Source struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Envelope is the wire shape of every notification. Built once at emission
// time and never mutated afterwards.
type Envelope struct {
	Type    string         `json:"type"`
	Source  Source         `json:"source"`
	Payload map[string]any `json:"payload"`
	TS      time.Time      `json:"ts"`
	Version string         `json:"version"`
}

// New builds an envelope of the given type, stamped with the current time and
// the current schema version. A nil payload becomes an empty map so the field
// is always present on the wire.
func New(eventType string, source Source, payload map[string]any) *Envelope {
	if payload == nil {
		payload = map[string]any{}
	}
	return &Envelope{
		Type:    eventType,
		Source:  source,
		Payload: payload,
		TS:      time.Now().UTC(),
		Version: Version,
	}
}

// NewError builds a standardized error envelope with type "error" and a
// payload of {error_type, message, details}.
func NewError(errorType, message string, source Source, details map[string]any) *Envelope {
	if details == nil {
		details = map[string]any{}
	}
	return New("error", source, map[string]any{
		"error_type": errorType,
		"message":    message,
		"details":    details,
	})
}

// Validate checks that all five envelope fields are present and that the
// source carries a non-empty kind and id.
func (e *Envelope) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil envelope", ErrInvalidEnvelope)
	}
	var missing []string
	if e.Type == "" {
		missing = append(missing, "type")
	}
	if e.Payload == nil {
		missing = append(missing, "payload")
	}
	if e.TS.IsZero() {
		missing = append(missing, "ts")
	}
	if e.Version == "" {
		missing = append(missing, "version")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing fields %v", ErrInvalidEnvelope, missing)
	}
	if e.Source.Kind == "" || e.Source.ID == "" {
		return fmt.Errorf("%w: source must have kind and id", ErrInvalidEnvelope)
	}
	return nil
}
