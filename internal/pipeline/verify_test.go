package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komps-labs/komps/internal/model"
)

func compsResult(comps ...map[string]any) model.ToolResult {
	payload := make([]any, 0, len(comps))
	for _, c := range comps {
		payload = append(payload, c)
	}
	return model.ToolResult{Provider: ProviderComps, Payload: map[string]any{"comps": payload}}
}

func TestVerify_CompsNormalization(t *testing.T) {
	raw := compsResult(
		map[string]any{
			"price":      float64(450000),
			"livingArea": float64(1800),
			"homeType":   "SINGLE_FAMILY",
			"zpid":       "111",
			"bedrooms":   float64(3),
			"bathrooms":  float64(2),
			"address": map[string]any{
				"streetAddress": "125 Main St",
				"city":          "Springfield",
				"state":         "IL",
				"zipcode":       "62704",
			},
		},
		map[string]any{
			// livingAreaValue fallback key
			"price":           float64(300000),
			"livingAreaValue": float64(1200),
			"homeType":        "CONDO",
		},
		map[string]any{
			// no living area at all: dropped
			"price": float64(500000),
		},
		map[string]any{
			// zero price: dropped
			"price":      float64(0),
			"livingArea": float64(900),
		},
	)

	claims := Verify(model.Action{Kind: model.ActionFetchComps}, raw)
	require.Len(t, claims, 1)

	claim := claims[0]
	assert.Equal(t, model.ClaimFieldComps, claim.Field)
	require.Len(t, claim.Comps, 2)

	first := claim.Comps[0]
	assert.Equal(t, "125 Main St, Springfield, IL, 62704", first.Address)
	assert.InDelta(t, 250.0, first.PricePerSqft, 0.001)
	assert.Equal(t, "Single Family", first.HomeType)
	assert.Equal(t, ProviderComps, first.Source)
	require.NotNil(t, first.Bedrooms)
	assert.Equal(t, 3.0, *first.Bedrooms)

	second := claim.Comps[1]
	assert.Equal(t, 1200.0, second.LivingArea)
	assert.Equal(t, "Condo", second.HomeType)
}

func TestVerify_CompsAddressChip(t *testing.T) {
	raw := compsResult(map[string]any{
		"price":      float64(400000),
		"livingArea": float64(1600),
		"formattedChip": map[string]any{
			"location": []any{
				map[string]any{"fullValue": "77 Elm St"},
				map[string]any{"fullValue": "Springfield, IL 62704"},
				map[string]any{"fullValue": "ignored third entry"},
			},
		},
		"address": map[string]any{"streetAddress": "should not be used"},
	})

	claims := Verify(model.Action{Kind: model.ActionFetchComps}, raw)
	require.Len(t, claims, 1)
	require.Len(t, claims[0].Comps, 1)
	assert.Equal(t, "77 Elm St, Springfield, IL 62704", claims[0].Comps[0].Address)
}

func TestVerify_CompsAddressChipMalformedFallsBack(t *testing.T) {
	raw := compsResult(map[string]any{
		"price":         float64(400000),
		"livingArea":    float64(1600),
		"formattedChip": "not a map",
		"address": map[string]any{
			"streetAddress": "9 Pine Rd",
			"city":          "Springfield",
		},
	})

	claims := Verify(model.Action{Kind: model.ActionFetchComps}, raw)
	require.Len(t, claims[0].Comps, 1)
	assert.Equal(t, "9 Pine Rd, Springfield", claims[0].Comps[0].Address)
}

func TestVerify_CompsConfidenceTiers(t *testing.T) {
	comp := func() map[string]any {
		return map[string]any{"price": float64(300000), "livingArea": float64(1500)}
	}

	tests := []struct {
		name  string
		comps []map[string]any
		want  float64
	}{
		{"zero", nil, 0.0},
		{"one", []map[string]any{comp()}, 0.2},
		{"two", []map[string]any{comp(), comp()}, 0.4},
		{"three", []map[string]any{comp(), comp(), comp()}, 0.9},
		{"four", []map[string]any{comp(), comp(), comp(), comp()}, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := Verify(model.Action{Kind: model.ActionFetchComps}, compsResult(tt.comps...))
			require.Len(t, claims, 1)
			assert.Equal(t, tt.want, claims[0].Confidence)
		})
	}
}

func TestVerify_WebSearch(t *testing.T) {
	raw := model.ToolResult{
		Provider: ProviderWebSearch,
		Payload: map[string]any{
			"results": []any{
				map[string]any{"title": "Market report", "url": "https://example.com/a", "content": "Prices up 4%"},
				map[string]any{"title": "Schools", "url": "https://example.com/b", "content": "District rated 8/10"},
			},
		},
	}

	claims := Verify(model.Action{Kind: model.ActionFetchWebSearch}, raw)
	require.Len(t, claims, 1)

	claim := claims[0]
	assert.Equal(t, model.ClaimFieldWebSearch, claim.Field)
	require.Len(t, claim.Snippets, 2)
	assert.Equal(t, "Market report", claim.Snippets[0].Title)
	assert.Equal(t, "Prices up 4%", claim.Snippets[0].Content)
	assert.Equal(t, ProviderWebSearch, claim.Snippets[0].Source)
	assert.Equal(t, 0.7, claim.Confidence)
}

func TestVerify_WebSearchConfidenceTiers(t *testing.T) {
	snippet := map[string]any{"title": "t", "url": "u", "content": "c"}

	tests := []struct {
		name    string
		results []any
		want    float64
	}{
		{"zero", nil, 0.0},
		{"one", []any{snippet}, 0.4},
		{"two", []any{snippet, snippet}, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := model.ToolResult{Provider: ProviderWebSearch, Payload: map[string]any{"results": tt.results}}
			claims := Verify(model.Action{Kind: model.ActionFetchWebSearch}, raw)
			require.Len(t, claims, 1)
			assert.Equal(t, tt.want, claims[0].Confidence)
		})
	}
}

func TestVerify_UnknownActionYieldsNoClaims(t *testing.T) {
	claims := Verify(model.Action{Kind: model.ActionFinalize}, model.ToolResult{})
	assert.Empty(t, claims)
}

func TestVerify_EmptyPayload(t *testing.T) {
	claims := Verify(model.Action{Kind: model.ActionFetchComps}, model.ToolResult{Provider: ProviderComps})
	require.Len(t, claims, 1)
	assert.Empty(t, claims[0].Comps)
	assert.Equal(t, 0.0, claims[0].Confidence)
}

func TestPrettyHomeType(t *testing.T) {
	assert.Equal(t, "Single Family", prettyHomeType("SINGLE_FAMILY"))
	assert.Equal(t, "Townhouse", prettyHomeType("TOWNHOUSE"))
	assert.Equal(t, "", prettyHomeType(""))
}

func TestAsFloat(t *testing.T) {
	v, ok := asFloat(float64(1.5))
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	v, ok = asFloat(int(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = asFloat("1200")
	assert.False(t, ok)

	_, ok = asFloat(nil)
	assert.False(t, ok)
}
