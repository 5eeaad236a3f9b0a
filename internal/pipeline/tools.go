package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/komps-labs/komps/internal/model"
	"github.com/komps-labs/komps/internal/resilience"
	"github.com/komps-labs/komps/pkg/jina"
	"github.com/komps-labs/komps/pkg/zillow"
)

// Provider identifiers recorded on claims and drivers.
const (
	ProviderComps     = "zillow_comps"
	ProviderWebSearch = "jina_search"
	ProviderStub      = "stub"
)

// dispatch invokes the evidence provider matching the action and wraps the
// raw result. Provider errors and timeouts degrade to an empty payload so
// the pipeline can proceed with whatever evidence it has; only an unknown
// action kind is an error (a caller contract violation).
func (p *Pipeline) dispatch(ctx context.Context, action model.Action) (model.ToolResult, error) {
	switch action.Kind {
	case model.ActionFetchComps:
		return p.fetchComps(ctx, action), nil
	case model.ActionFetchWebSearch:
		return p.fetchWebSearch(ctx, action), nil
	case model.ActionFetchParcel, model.ActionFetchZoning:
		// Reserved: no providers wired yet.
		return model.ToolResult{Provider: ProviderStub, Payload: map[string]any{}}, nil
	case model.ActionFinalize:
		return model.ToolResult{}, nil
	default:
		return model.ToolResult{}, eris.Errorf("pipeline: unknown action kind %q", action.Kind)
	}
}

func (p *Pipeline) fetchComps(ctx context.Context, action model.Action) model.ToolResult {
	empty := model.ToolResult{Provider: ProviderComps, Payload: map[string]any{"comps": []map[string]any{}}}
	if p.zillow == nil {
		return empty
	}

	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout())
	defer cancel()

	resp, err := resilience.DoVal(ctx, p.retryCfg(), "zillow.comps", func(ctx context.Context) (*zillow.CompsResponse, error) {
		return p.zillow.Comps(ctx, zillow.CompsRequest{
			Address:    action.Params["address"],
			ListingID:  action.Params["listing_id"],
			AssetClass: action.Params["asset_class"],
		})
	})
	if err != nil {
		zap.L().Warn("pipeline: comps fetch failed, continuing with empty evidence",
			zap.String("address", action.Params["address"]),
			zap.Error(err),
		)
		return empty
	}

	comps := make([]map[string]any, 0, len(resp.Comps))
	comps = append(comps, resp.Comps...)
	return model.ToolResult{Provider: ProviderComps, Payload: map[string]any{"comps": comps}}
}

func (p *Pipeline) fetchWebSearch(ctx context.Context, action model.Action) model.ToolResult {
	empty := model.ToolResult{Provider: ProviderWebSearch, Payload: map[string]any{"results": []map[string]any{}}}
	if p.jina == nil {
		return empty
	}

	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout())
	defer cancel()

	resp, err := resilience.DoVal(ctx, p.retryCfg(), "jina.search", func(ctx context.Context) (*jina.SearchResponse, error) {
		return p.jina.Search(ctx, action.Params["address"])
	})
	if err != nil {
		zap.L().Warn("pipeline: web search failed, continuing with empty evidence",
			zap.String("address", action.Params["address"]),
			zap.Error(err),
		)
		return empty
	}

	results := make([]map[string]any, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"content": r.Content,
		})
	}
	return model.ToolResult{Provider: ProviderWebSearch, Payload: map[string]any{"results": results}}
}

func (p *Pipeline) fetchTimeout() time.Duration {
	secs := p.cfg.Orchestrator.FetchTimeoutSecs
	if secs <= 0 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}

func (p *Pipeline) retryCfg() resilience.Config {
	cfg := resilience.DefaultConfig()
	cfg.MaxAttempts = 1 + p.cfg.Orchestrator.FetchRetries
	return cfg
}
