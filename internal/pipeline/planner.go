package pipeline

import "github.com/komps-labs/komps/internal/model"

// Progress tracks which evidence fetches have been attempted this run.
// A fetch that returns nothing still counts as attempted; that is what
// guarantees the planner loop terminates.
type Progress struct {
	WebSearched  bool
	CompsFetched bool
}

// PlanNext deterministically selects the next action. Priority order,
// first match wins:
//
//  1. web context has not been fetched yet
//  2. no comparable-sale evidence has been fetched or accepted
//  3. finalize
//
// Pure function of its inputs; no side effects.
func PlanNext(req model.Request, verified model.VerifiedState, prog Progress) model.Action {
	if !prog.WebSearched {
		return model.Action{
			Kind:   model.ActionFetchWebSearch,
			Params: map[string]string{"address": req.Address},
		}
	}

	if !prog.CompsFetched && len(verified.Comps) == 0 {
		return model.Action{
			Kind: model.ActionFetchComps,
			Params: map[string]string{
				"address":     req.Address,
				"listing_id":  req.ListingID,
				"asset_class": string(req.AssetClass),
			},
		}
	}

	return model.Action{Kind: model.ActionFinalize}
}
