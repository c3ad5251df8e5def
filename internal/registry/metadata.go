// ABOUTME: Metadata and payload schema types shared by action and signal registries.
// ABOUTME: Schemas are advisory documentation surfaced to callers, not enforced.

package registry

// FieldSpec documents one payload field of an action or signal. The registry
// never validates payloads against it; handlers own their own validation.
type FieldSpec struct {
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Default  any      `json:"default,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// Schema maps payload field names to their constraint records.
type Schema map[string]FieldSpec

// Metadata describes a registered action or signal. Immutable once registered;
// re-registering a name replaces both handler and metadata.
type Metadata struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	PayloadSchema Schema `json:"payload_schema"`
}
