package model

// ActionKind identifies the planner's decision for the next step.
type ActionKind string

const (
	ActionFetchComps     ActionKind = "fetch_comps"
	ActionFetchWebSearch ActionKind = "fetch_web_search"
	ActionFetchParcel    ActionKind = "fetch_parcel"
	ActionFetchZoning    ActionKind = "fetch_zoning"
	ActionFinalize       ActionKind = "finalize"
)

// Action is produced once per orchestration step and read once by the
// tool-dispatch step.
type Action struct {
	Kind   ActionKind        `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// ToolResult wraps one raw provider payload with the provider identity.
// An unavailable provider yields an empty payload, not an error.
type ToolResult struct {
	Provider string         `json:"provider"`
	Payload  map[string]any `json:"payload"`
}
