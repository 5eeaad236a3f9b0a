package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/komps-labs/komps/internal/model"
	"github.com/komps-labs/komps/pkg/anthropic"
)

const summarizeSystem = `You are a real estate market analyst. Given web search results about a property's neighborhood, respond with a JSON object only:
{"summary": "<2-3 sentence market context summary>", "drivers": ["<short driver, e.g. school quality>", ...]}`

const reportSystem = `You are a real estate investment analyst writing an internal memo. Respond with a JSON object only, all values plain prose strings:
{"executive_summary": "...", "market_overview": "...", "comparable_analysis": "...", "risks": "...", "recommendations": "..."}`

// summarize asks the narrative capability for a short market-context
// summary of the accumulated web results. Called at most once per run;
// failure is tolerated by the caller.
func (p *Pipeline) summarize(ctx context.Context, snippets []model.Snippet) (*model.NarrativeSummary, error) {
	if p.anthropic == nil {
		return nil, eris.New("pipeline: narrative capability not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, p.narrativeTimeout())
	defer cancel()

	var b strings.Builder
	b.WriteString("Web search results:\n\n")
	for i, s := range snippets {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, s.Title, s.URL, s.Content)
	}

	resp, err := p.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.Model,
		MaxTokens: p.maxTokens(),
		System:    summarizeSystem,
		Messages:  []anthropic.Message{{Role: "user", Content: b.String()}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: summarize")
	}

	var out model.NarrativeSummary
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text)), &out); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse summary")
	}
	if out.Summary == "" {
		return nil, eris.New("pipeline: empty summary")
	}
	return &out, nil
}

// writeReport asks the narrative capability for the five memo sections.
// Failure is tolerated by the caller; the structured report ships without
// prose.
func (p *Pipeline) writeReport(ctx context.Context, req model.Request, val model.Valuation, drivers []model.Driver, summary *model.NarrativeSummary) (*model.ReportSections, error) {
	if p.anthropic == nil {
		return nil, eris.New("pipeline: narrative capability not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, p.narrativeTimeout())
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s (%s)\n", req.Address, req.AssetClass)
	if val.Estimate != nil {
		fmt.Fprintf(&b, "Estimate: $%.0f (method %s, confident=%t)\n", *val.Estimate, val.Method, val.Confident)
	} else {
		fmt.Fprintf(&b, "Estimate: insufficient evidence (confident=%t)\n", val.Confident)
	}
	if summary != nil {
		fmt.Fprintf(&b, "Market context: %s\n", summary.Summary)
	}

	b.WriteString("\nComparables:\n")
	count := 0
	for _, d := range drivers {
		if d.Kind != model.DriverComp || d.Comp == nil || count >= maxCompDrivers {
			continue
		}
		count++
		fmt.Fprintf(&b, "- %s: $%.0f, %.0f sqft ($%.0f/sqft)\n",
			d.Comp.Address, d.Comp.Price, d.Comp.LivingArea, d.Comp.PricePerSqft)
	}

	resp, err := p.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.Model,
		MaxTokens: p.maxTokens(),
		System:    reportSystem,
		Messages:  []anthropic.Message{{Role: "user", Content: b.String()}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: write report")
	}

	var out model.ReportSections
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text)), &out); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse report sections")
	}
	return &out, nil
}

func (p *Pipeline) narrativeTimeout() time.Duration {
	secs := p.cfg.Orchestrator.NarrativeTimeoutSecs
	if secs <= 0 {
		secs = 60
	}
	return time.Duration(secs) * time.Second
}

func (p *Pipeline) maxTokens() int64 {
	if p.cfg.Anthropic.MaxTokens > 0 {
		return p.cfg.Anthropic.MaxTokens
	}
	return 1024
}

// cleanJSON strips markdown fences and surrounding chatter from a model
// response, leaving the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
