// Package store persists appraisal runs and the audit event log.
package store

import (
	"context"

	"github.com/komps-labs/komps/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// EventFilter specifies criteria for querying the event log.
type EventFilter struct {
	Type    string `json:"type,omitempty"`
	ActorID string `json:"actor_id,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the appraisal pipeline.
// Events are write-once; there is no update or delete path.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, req model.Request) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Event log
	SaveEvent(ctx context.Context, event model.Event) (string, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error)
	EventStats(ctx context.Context) (*model.EventStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
