package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStateIsTerminal(t *testing.T) {
	assert.True(t, StateDone.IsTerminal())
	assert.True(t, StatePausedForReview.IsTerminal())

	for _, s := range []RunState{
		StatePlanning, StateFetching, StateVerifying,
		StateMerging, StateSummarizing, StateValuating, StateReporting,
	} {
		assert.False(t, s.IsTerminal(), string(s))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	// The snapshot crosses the pause boundary as JSON; everything needed to
	// resume must survive.
	snap := Snapshot{
		Request: Request{Address: "123 Main St", AssetClass: AssetClassResidential},
		Verified: VerifiedState{
			Comps:      []Comparable{{Address: "125 Main St", Price: 300000, LivingArea: 1500, PricePerSqft: 200}},
			WebResults: []Snippet{{Title: "Report", Content: "Prices up", Source: "jina_search"}},
		},
		Summary:      &NarrativeSummary{Summary: "stable market", Drivers: []string{"schools"}},
		WebSearched:  true,
		CompsFetched: true,
	}

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var got Snapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, snap, got)
}
