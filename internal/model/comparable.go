package model

// Comparable is a normalized comparable-sale record. Records that survive
// normalization always have Price > 0 and LivingArea > 0.
type Comparable struct {
	Address      string   `json:"address"`
	Price        float64  `json:"price"`
	LivingArea   float64  `json:"living_area"`
	Bedrooms     *float64 `json:"bedrooms,omitempty"`
	Bathrooms    *float64 `json:"bathrooms,omitempty"`
	PricePerSqft float64  `json:"price_per_sqft"`
	HomeType     string   `json:"home_type,omitempty"`
	Source       string   `json:"source"`
	ZPID         string   `json:"zpid,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// Snippet is one web-context search result carried through verbatim.
type Snippet struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content"`
	Source  string `json:"source"`
}
