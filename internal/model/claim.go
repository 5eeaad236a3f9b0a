package model

// ClaimField tags which slot of the verified state a claim targets.
type ClaimField string

const (
	ClaimFieldComps     ClaimField = "comps"
	ClaimFieldParcel    ClaimField = "parcel"
	ClaimFieldZoning    ClaimField = "zoning"
	ClaimFieldWebSearch ClaimField = "web_search"
)

// Claim is one verified, confidence-scored assertion produced from a single
// evidence fetch. A claim is consumed once by the merge step and then
// discarded; it is never mutated.
//
// Confidence measures evidence sufficiency (how many independent data points
// survived verification), not data quality.
type Claim struct {
	Field      ClaimField     `json:"field"`
	Comps      []Comparable   `json:"comps,omitempty"`
	Snippets   []Snippet      `json:"snippets,omitempty"`
	Record     map[string]any `json:"record,omitempty"`
	Confidence float64        `json:"confidence"`
	Source     string         `json:"source"`
}

// VerifiedState is the run's accumulated trusted facts. It grows
// monotonically within a run via field-level overwrite and never shrinks.
type VerifiedState struct {
	Comps      []Comparable   `json:"comps,omitempty"`
	WebResults []Snippet      `json:"web_results,omitempty"`
	Parcel     map[string]any `json:"parcel,omitempty"`
	Zoning     map[string]any `json:"zoning,omitempty"`
}
