package model

// Valuation method tags.
const (
	MethodAvgPricePerSqft = "avg_price_per_sqft"
	MethodMedianPrice     = "median_price"
)

// Valuation is the deterministic output of the valuation engine. A nil
// Estimate means the evidence was insufficient; that is a normal outcome,
// not an error.
type Valuation struct {
	Estimate          *float64 `json:"estimate"`
	Method            string   `json:"method"`
	AvgPricePerSqft   *float64 `json:"avg_price_per_sqft,omitempty"`
	AssumedLivingArea *float64 `json:"assumed_living_area,omitempty"`
	SubjectType       string   `json:"subject_type,omitempty"`
	Markup            float64  `json:"markup,omitempty"`
	NumComps          int      `json:"num_comps"`
	Confident         bool     `json:"confident"`
}

// DriverKind distinguishes comparable-record drivers from the synthetic
// narrative-summary driver.
type DriverKind string

const (
	DriverComp             DriverKind = "comp"
	DriverWebSearchSummary DriverKind = "web_search_summary"
)

// Driver is one piece of evidence presented in support of the valuation.
type Driver struct {
	Kind    DriverKind  `json:"kind"`
	Comp    *Comparable `json:"comp,omitempty"`
	Summary string      `json:"summary,omitempty"`
	Source  string      `json:"source"`
}
