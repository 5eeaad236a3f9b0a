package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/komps-labs/komps/internal/config"
	"github.com/komps-labs/komps/internal/model"
	"github.com/komps-labs/komps/pkg/anthropic"
)

func testConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{Model: "claude-haiku-4-5-20251001", MaxTokens: 1024},
		Valuation: config.ValuationConfig{Method: model.MethodAvgPricePerSqft, Markup: 1.0},
		Orchestrator: config.OrchestratorConfig{
			FetchTimeoutSecs:     5,
			NarrativeTimeoutSecs: 5,
			FetchRetries:         0,
		},
	}
}

func TestSummarize(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropic.MessageResponse{
			Text: `{"summary": "Stable market, prices up 4% YoY.", "drivers": ["school quality", "low inventory"]}`,
		}, nil).Once()

	p := New(testConfig(), nil, nil, nil, ai)

	summary, err := p.summarize(context.Background(), []model.Snippet{
		{Title: "Report", URL: "https://example.com", Content: "Prices up 4%"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Stable market, prices up 4% YoY.", summary.Summary)
	assert.Equal(t, []string{"school quality", "low inventory"}, summary.Drivers)
	ai.AssertExpectations(t)
}

func TestSummarize_FencedResponse(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropic.MessageResponse{
			Text: "```json\n{\"summary\": \"Quiet market.\"}\n```",
		}, nil).Once()

	p := New(testConfig(), nil, nil, nil, ai)

	summary, err := p.summarize(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "Quiet market.", summary.Summary)
}

func TestSummarize_EmptySummaryRejected(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropic.MessageResponse{Text: `{"summary": ""}`}, nil).Once()

	p := New(testConfig(), nil, nil, nil, ai)

	_, err := p.summarize(context.Background(), nil)
	assert.Error(t, err)
}

func TestSummarize_NoClient(t *testing.T) {
	p := New(testConfig(), nil, nil, nil, nil)
	_, err := p.summarize(context.Background(), nil)
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropic.MessageResponse{
			Text: `{"executive_summary": "Attractive entry point.", "market_overview": "Tight supply.", "comparable_analysis": "Comps cluster around $250/sqft.", "risks": "Rate sensitivity.", "recommendations": "Proceed with offer."}`,
		}, nil).Once()

	p := New(testConfig(), nil, nil, nil, ai)

	estimate := 265000.0
	val := model.Valuation{Estimate: &estimate, Method: model.MethodAvgPricePerSqft, Confident: true}
	req := model.Request{Address: "123 Main St", AssetClass: model.AssetClassResidential}

	sections, err := p.writeReport(context.Background(), req, val, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "Attractive entry point.", sections.ExecutiveSummary)
	assert.Equal(t, "Proceed with offer.", sections.Recommendations)
	ai.AssertExpectations(t)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"chatter", "Here is the JSON:\n{\"a\": 1}\nHope that helps!", `{"a": 1}`},
		{"whitespace", "  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}
