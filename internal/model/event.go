package model

import "time"

// Event types recorded in the audit log.
const (
	EventReportCompleted = "report_completed"
	EventReportForwarded = "report_forwarded"
)

// Event is one write-once audit record for an externally-visible action.
// The event log is a pure log-and-query sink; it has no bearing on
// valuation correctness.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	ActorID   string         `json:"actor_id"`
	ActorName string         `json:"actor_name,omitempty"`
	Address   string         `json:"address"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// EventStats aggregates the event log for dashboards.
type EventStats struct {
	Total     int            `json:"total"`
	ByType    map[string]int `json:"by_type"`
	ByActor   map[string]int `json:"by_actor"`
	Recent24h int            `json:"recent_24h"`
}
