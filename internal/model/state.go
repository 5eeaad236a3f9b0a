package model

// RunState is one state of the appraisal state machine.
type RunState string

const (
	StatePlanning        RunState = "planning"
	StateFetching        RunState = "fetching"
	StateVerifying       RunState = "verifying"
	StateMerging         RunState = "merging"
	StateSummarizing     RunState = "summarizing"
	StateValuating       RunState = "valuating"
	StateReporting       RunState = "reporting"
	StateDone            RunState = "done"
	StatePausedForReview RunState = "paused_for_review"
)

// IsTerminal reports whether the state machine stops at this state for the
// current invocation. A paused run can be resumed by an external caller.
func (s RunState) IsTerminal() bool {
	return s == StateDone || s == StatePausedForReview
}

// NarrativeSummary is the web-context summary produced by the narrative
// capability, at most once per run.
type NarrativeSummary struct {
	Summary string   `json:"summary"`
	Drivers []string `json:"drivers,omitempty"`
}

// Snapshot captures everything needed to resume a paused run. The caller
// holds it across the pause and hands it back unchanged (or with additional
// verified evidence) to resume.
type Snapshot struct {
	Request      Request           `json:"request"`
	Verified     VerifiedState     `json:"verified"`
	Summary      *NarrativeSummary `json:"summary,omitempty"`
	WebSearched  bool              `json:"web_searched"`
	CompsFetched bool              `json:"comps_fetched"`
}
