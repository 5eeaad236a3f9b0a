package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/komps-labs/komps/internal/pipeline"
	"github.com/komps-labs/komps/internal/store"
	anthropicpkg "github.com/komps-labs/komps/pkg/anthropic"
	"github.com/komps-labs/komps/pkg/jina"
	"github.com/komps-labs/komps/pkg/zillow"
)

// pipelineEnv holds the initialized store, clients, and pipeline needed by
// the run/batch/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline sets up the store and evidence providers and builds the
// Pipeline. Callers should defer env.Close(). Providers without configured
// keys are left nil; the pipeline degrades to empty evidence for them.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var zillowClient zillow.Client
	if cfg.Zillow.Key != "" {
		zillowClient = zillow.NewClient(cfg.Zillow.Key,
			zillow.WithBaseURL(cfg.Zillow.BaseURL),
			zillow.WithRateLimit(cfg.Zillow.RateLimit),
		)
	} else {
		zap.L().Warn("KOMPS_ZILLOW_KEY not set, comps evidence disabled")
	}

	var jinaClient jina.Client
	if cfg.Jina.Key != "" || cfg.Jina.SearchBaseURL != "" {
		jinaClient = jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.SearchBaseURL))
	} else {
		zap.L().Warn("KOMPS_JINA_KEY not set, web context evidence disabled")
	}

	var anthropicClient anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		anthropicClient = anthropicpkg.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Warn("KOMPS_ANTHROPIC_KEY not set, narrative sections disabled")
	}

	p := pipeline.New(cfg, st, zillowClient, jinaClient, anthropicClient)

	return &pipelineEnv{Store: st, Pipeline: p}, nil
}
