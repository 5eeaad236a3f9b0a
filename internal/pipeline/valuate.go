package pipeline

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/komps-labs/komps/internal/config"
	"github.com/komps-labs/komps/internal/model"
)

const maxCompDrivers = 5

// Valuate derives a deterministic valuation from the verified state. An
// empty comparable set yields a nil estimate and a false confidence flag,
// never an error or a division by zero.
func Valuate(verified model.VerifiedState, summary *model.NarrativeSummary, cfg config.ValuationConfig) (model.Valuation, []model.Driver) {
	if cfg.Method == model.MethodMedianPrice {
		return valuateMedianPrice(verified, summary)
	}
	return valuateAvgPricePerSqft(verified, summary, cfg)
}

// valuateAvgPricePerSqft estimates subject value as the average
// price-per-sqft of type-matched comparables times the median living area.
func valuateAvgPricePerSqft(verified model.VerifiedState, summary *model.NarrativeSummary, cfg config.ValuationConfig) (model.Valuation, []model.Driver) {
	comps := verified.Comps

	subjectType := ""
	for _, c := range comps {
		if c.HomeType != "" {
			subjectType = c.HomeType
			break
		}
	}

	var filtered []model.Comparable
	for _, c := range comps {
		if subjectType != "" && c.HomeType != subjectType {
			continue
		}
		if c.PricePerSqft <= 0 {
			continue
		}
		filtered = append(filtered, c)
	}

	val := model.Valuation{
		Method:      model.MethodAvgPricePerSqft,
		SubjectType: subjectType,
		NumComps:    len(comps),
		Confident:   len(filtered) >= 3,
	}

	if len(filtered) > 0 {
		sum := 0.0
		for _, c := range filtered {
			sum += c.PricePerSqft
		}
		avg := sum / float64(len(filtered))
		val.AvgPricePerSqft = &avg
	}

	assumedLA := medianLivingArea(filtered)
	if assumedLA == nil {
		assumedLA = medianLivingArea(comps)
	}
	val.AssumedLivingArea = assumedLA

	if val.AvgPricePerSqft != nil && assumedLA != nil {
		markup := clampMarkup(cfg.Markup)
		val.Markup = markup
		estimate := *val.AvgPricePerSqft * *assumedLA * markup
		val.Estimate = &estimate
		if markup != 1.0 {
			zap.L().Info("valuation: applying configured markup", zap.Float64("markup", markup))
		}
	}

	pool := filtered
	if len(pool) == 0 {
		pool = comps
	}
	return val, buildDrivers(pool, assumedLA, summary)
}

// valuateMedianPrice estimates subject value as the median comparable price.
func valuateMedianPrice(verified model.VerifiedState, summary *model.NarrativeSummary) (model.Valuation, []model.Driver) {
	comps := verified.Comps

	val := model.Valuation{
		Method:    model.MethodMedianPrice,
		NumComps:  len(comps),
		Confident: len(comps) >= 3,
	}

	if len(comps) > 0 {
		prices := make([]float64, len(comps))
		for i, c := range comps {
			prices[i] = c.Price
		}
		estimate := median(prices)
		val.Estimate = &estimate
	}

	target := medianLivingArea(comps)
	val.AssumedLivingArea = target
	return val, buildDrivers(comps, target, summary)
}

// buildDrivers ranks up to five comparables by distance of their living
// area from the target, then appends the narrative-summary driver last when
// a summary exists. The synthetic entry does not count against the cap.
func buildDrivers(pool []model.Comparable, target *float64, summary *model.NarrativeSummary) []model.Driver {
	ranked := make([]model.Comparable, len(pool))
	copy(ranked, pool)
	if target != nil {
		sort.SliceStable(ranked, func(i, j int) bool {
			return math.Abs(ranked[i].LivingArea-*target) < math.Abs(ranked[j].LivingArea-*target)
		})
	}
	if len(ranked) > maxCompDrivers {
		ranked = ranked[:maxCompDrivers]
	}

	drivers := make([]model.Driver, 0, len(ranked)+1)
	for i := range ranked {
		drivers = append(drivers, model.Driver{
			Kind:   model.DriverComp,
			Comp:   &ranked[i],
			Source: ranked[i].Source,
		})
	}

	if summary != nil {
		drivers = append(drivers, model.Driver{
			Kind:    model.DriverWebSearchSummary,
			Summary: summary.Summary,
			Source:  ProviderWebSearch,
		})
	}
	return drivers
}

func medianLivingArea(comps []model.Comparable) *float64 {
	if len(comps) == 0 {
		return nil
	}
	areas := make([]float64, len(comps))
	for i, c := range comps {
		areas[i] = c.LivingArea
	}
	m := median(areas)
	return &m
}

func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// clampMarkup bounds the configured markup to [1.0, 1.25] so a bad
// config value cannot inflate or deflate the estimate.
func clampMarkup(m float64) float64 {
	if m < 1.0 {
		return 1.0
	}
	if m > 1.25 {
		return 1.25
	}
	return m
}
