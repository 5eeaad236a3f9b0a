package model

import "github.com/rotisserie/eris"

// AssetClass categorizes the subject property.
type AssetClass string

const (
	AssetClassResidential AssetClass = "residential"
	AssetClassCommercial  AssetClass = "commercial"
	AssetClassIndustrial  AssetClass = "industrial"
)

// IsValid reports whether the asset class is one of the known values.
func (a AssetClass) IsValid() bool {
	switch a {
	case AssetClassResidential, AssetClassCommercial, AssetClassIndustrial:
		return true
	default:
		return false
	}
}

// Request identifies the subject property for an appraisal run. It is
// immutable once created.
type Request struct {
	Address    string     `json:"address"`
	ListingID  string     `json:"listing_id"`
	AssetClass AssetClass `json:"asset_class"`
}

// Validate checks the request contract. A failure here is a caller error and
// is never retried.
func (r Request) Validate() error {
	if r.Address == "" {
		return eris.New("model: request address is required")
	}
	if !r.AssetClass.IsValid() {
		return eris.Errorf("model: unknown asset class %q", r.AssetClass)
	}
	return nil
}
