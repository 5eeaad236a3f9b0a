package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/komps-labs/komps/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	estimate := 265000.0
	now := time.Now().UTC()
	runs := []model.Run{
		{
			ID:      "run-1",
			Request: model.Request{Address: "123 Main St", AssetClass: model.AssetClassResidential},
			Status:  model.RunStatusComplete,
			Result: &model.RunResult{
				Report: &model.Report{Valuation: model.Valuation{Estimate: &estimate}},
			},
			CreatedAt: now,
			UpdatedAt: now.Add(12 * time.Second),
		},
		{
			ID:        "run-2",
			Request:   model.Request{Address: "1 Plaza Dr", AssetClass: model.AssetClassCommercial},
			Status:    model.RunStatusFailed,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "123 Main St")
	assert.Contains(t, out, "$265000")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "-") // no estimate for the failed run
}

func TestFormatEstimate_NoResult(t *testing.T) {
	assert.Equal(t, "-", formatEstimate(model.Run{}))
	assert.Equal(t, "-", formatEstimate(model.Run{Result: &model.RunResult{}}))
}

func TestFormatEventsList(t *testing.T) {
	events := []model.Event{
		{ID: "evt-1", Type: model.EventReportCompleted, ActorID: "pipeline", Address: "123 Main St", Timestamp: time.Now()},
		{ID: "evt-2", Type: model.EventReportForwarded, ActorID: "operator-7", ActorName: "Dana", Address: "123 Main St", Timestamp: time.Now()},
	}

	var buf bytes.Buffer
	formatEventsList(&buf, events)
	out := buf.String()

	assert.Contains(t, out, "evt-1")
	assert.Contains(t, out, "report_completed")
	assert.Contains(t, out, "Dana (operator-7)")
}
