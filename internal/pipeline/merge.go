package pipeline

import (
	"go.uber.org/zap"

	"github.com/komps-labs/komps/internal/model"
)

// Confidence gates: the minimum score a claim needs before its field is
// overwritten in the verified state. Comps and web context accept degraded
// evidence; parcel and zoning are reserved and held to a higher bar.
var confidenceGates = map[model.ClaimField]float64{
	model.ClaimFieldComps:     0.2,
	model.ClaimFieldWebSearch: 0.2,
	model.ClaimFieldParcel:    0.5,
	model.ClaimFieldZoning:    0.5,
}

// Merge folds verified claims into the verified state with field-level
// overwrite, discarding claims below their gate. Returns the fields that
// were accepted. Merging the same claims twice yields the same state.
func Merge(verified *model.VerifiedState, claims []model.Claim) []model.ClaimField {
	var accepted []model.ClaimField
	for _, claim := range claims {
		gate, known := confidenceGates[claim.Field]
		if !known {
			zap.L().Warn("merge: ignoring claim for unknown field", zap.String("field", string(claim.Field)))
			continue
		}
		if claim.Confidence < gate {
			zap.L().Debug("merge: claim below confidence gate",
				zap.String("field", string(claim.Field)),
				zap.Float64("confidence", claim.Confidence),
				zap.Float64("gate", gate),
			)
			continue
		}

		switch claim.Field {
		case model.ClaimFieldComps:
			verified.Comps = claim.Comps
		case model.ClaimFieldWebSearch:
			verified.WebResults = claim.Snippets
		case model.ClaimFieldParcel:
			verified.Parcel = claim.Record
		case model.ClaimFieldZoning:
			verified.Zoning = claim.Record
		}
		accepted = append(accepted, claim.Field)
	}
	return accepted
}
