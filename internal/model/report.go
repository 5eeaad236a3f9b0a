package model

// ReportSections holds the narrative prose of the investment memo. All
// sections are absent when report writing fails; that never aborts a run.
type ReportSections struct {
	ExecutiveSummary   string `json:"executive_summary"`
	MarketOverview     string `json:"market_overview"`
	ComparableAnalysis string `json:"comparable_analysis"`
	Risks              string `json:"risks"`
	Recommendations    string `json:"recommendations"`
}

// Report is the terminal artifact of a run.
type Report struct {
	Subject   Request           `json:"subject"`
	Valuation Valuation         `json:"valuation"`
	Drivers   []Driver          `json:"drivers"`
	Sources   []string          `json:"sources"`
	Summary   *NarrativeSummary `json:"summary,omitempty"`
	Sections  *ReportSections   `json:"sections,omitempty"`
}
