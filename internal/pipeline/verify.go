package pipeline

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/komps-labs/komps/internal/model"
)

// Verify turns one raw provider payload into confidence-scored claims,
// applying field-specific rules. Confidence measures evidence sufficiency
// (count of surviving records), not data quality. Unknown action kinds
// yield no claims.
func Verify(action model.Action, raw model.ToolResult) []model.Claim {
	switch action.Kind {
	case model.ActionFetchComps:
		return []model.Claim{verifyComps(raw)}
	case model.ActionFetchWebSearch:
		return []model.Claim{verifyWebSearch(raw)}
	default:
		return nil
	}
}

// verifyComps normalizes a raw comps batch into a single claim carrying the
// whole batch. Records without a positive numeric price and living area are
// dropped.
func verifyComps(raw model.ToolResult) model.Claim {
	rawComps := rawRecords(raw.Payload, "comps")

	normalized := make([]model.Comparable, 0, len(rawComps))
	for _, rc := range rawComps {
		if comp, ok := normalizeComp(rc, raw.Provider); ok {
			normalized = append(normalized, comp)
		}
	}

	return model.Claim{
		Field:      model.ClaimFieldComps,
		Comps:      normalized,
		Confidence: compsConfidence(len(normalized)),
		Source:     raw.Provider,
	}
}

// verifyWebSearch passes the snippet list through verbatim.
func verifyWebSearch(raw model.ToolResult) model.Claim {
	rawResults := rawRecords(raw.Payload, "results")

	snippets := make([]model.Snippet, 0, len(rawResults))
	for _, rr := range rawResults {
		snippets = append(snippets, model.Snippet{
			Title:   asString(rr["title"]),
			URL:     asString(rr["url"]),
			Content: asString(rr["content"]),
			Source:  raw.Provider,
		})
	}

	return model.Claim{
		Field:      model.ClaimFieldWebSearch,
		Snippets:   snippets,
		Confidence: webConfidence(len(snippets)),
		Source:     raw.Provider,
	}
}

func normalizeComp(rc map[string]any, source string) (model.Comparable, bool) {
	price, ok := asFloat(rc["price"])
	if !ok || price <= 0 {
		return model.Comparable{}, false
	}

	livingArea, ok := asFloat(rc["livingArea"])
	if !ok {
		livingArea, ok = asFloat(rc["livingAreaValue"])
	}
	if !ok || livingArea <= 0 {
		return model.Comparable{}, false
	}

	comp := model.Comparable{
		Address:      resolveAddress(rc),
		Price:        price,
		LivingArea:   livingArea,
		PricePerSqft: price / livingArea,
		HomeType:     prettyHomeType(asString(rc["homeType"])),
		Source:       source,
		ZPID:         asString(rc["zpid"]),
		URL:          asString(rc["hdpUrl"]),
	}
	if beds, ok := asFloat(rc["bedrooms"]); ok {
		comp.Bedrooms = &beds
	}
	if baths, ok := asFloat(rc["bathrooms"]); ok {
		comp.Bathrooms = &baths
	}
	return comp, true
}

// resolveAddress prefers the formatted address chip, falling back to joining
// individual address components. Any parse failure falls back silently; a
// malformed address never drops the record.
func resolveAddress(rc map[string]any) string {
	if chip, ok := rc["formattedChip"].(map[string]any); ok {
		if loc, ok := chip["location"].([]any); ok && len(loc) > 0 {
			var parts []string
			for i, entry := range loc {
				if i >= 2 {
					break
				}
				if m, ok := entry.(map[string]any); ok {
					if v := asString(m["fullValue"]); v != "" {
						parts = append(parts, v)
					}
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, ", ")
			}
		}
	}

	addr, _ := rc["address"].(map[string]any)
	var parts []string
	for _, key := range []string{"streetAddress", "city", "state", "zipcode"} {
		if v := asString(addr[key]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// compsConfidence scores a comps batch by surviving-record count.
func compsConfidence(n int) float64 {
	switch {
	case n >= 3:
		return 0.9
	case n == 2:
		return 0.4
	case n == 1:
		return 0.2
	default:
		return 0.0
	}
}

// webConfidence scores a web-context batch by snippet count.
func webConfidence(n int) float64 {
	switch {
	case n >= 2:
		return 0.7
	case n == 1:
		return 0.4
	default:
		return 0.0
	}
}

var homeTypeCaser = cases.Title(language.AmericanEnglish)

// prettyHomeType turns provider tags like "SINGLE_FAMILY" into
// "Single Family" for display. Applied uniformly, so subject-type matching
// in the valuation engine stays consistent.
func prettyHomeType(t string) string {
	if t == "" {
		return ""
	}
	return homeTypeCaser.String(strings.ToLower(strings.ReplaceAll(t, "_", " ")))
}

func rawRecords(payload map[string]any, key string) []map[string]any {
	if payload == nil {
		return nil
	}
	switch v := payload[key].(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
