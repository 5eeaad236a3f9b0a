package main

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komps-labs/komps/internal/model"
	"github.com/komps-labs/komps/internal/pipeline"
)

func TestLoadBatchManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	content := `
requests:
  - address: "123 Main St, Springfield, IL"
    listing_id: "zpid-42"
    asset_class: residential
  - address: "1 Plaza Dr, Chicago, IL"
    asset_class: commercial
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	requests, err := loadBatchManifest(path)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "123 Main St, Springfield, IL", requests[0].Address)
	assert.Equal(t, "zpid-42", requests[0].ListingID)
	assert.Equal(t, model.AssetClassResidential, requests[0].AssetClass)
	assert.Equal(t, model.AssetClassCommercial, requests[1].AssetClass)
}

func TestLoadBatchManifest_MissingFile(t *testing.T) {
	_, err := loadBatchManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBatchManifest_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("requests: {not a list"), 0o644))

	_, err := loadBatchManifest(path)
	assert.Error(t, err)
}

func TestProcessBatch_AllSucceed(t *testing.T) {
	requests := []model.Request{
		{Address: "a", AssetClass: model.AssetClassResidential},
		{Address: "b", AssetClass: model.AssetClassResidential},
		{Address: "c", AssetClass: model.AssetClassResidential},
	}

	var calls atomic.Int64
	err := processBatch(context.Background(), requests, 0, 2, func(_ context.Context, req model.Request) (*pipeline.Result, error) {
		calls.Add(1)
		return &pipeline.Result{Report: &model.Report{Subject: req}}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}

func TestProcessBatch_IndividualFailureDoesNotAbort(t *testing.T) {
	requests := []model.Request{
		{Address: "ok", AssetClass: model.AssetClassResidential},
		{Address: "bad", AssetClass: model.AssetClassResidential},
		{Address: "ok2", AssetClass: model.AssetClassResidential},
	}

	var calls atomic.Int64
	err := processBatch(context.Background(), requests, 0, 1, func(_ context.Context, req model.Request) (*pipeline.Result, error) {
		calls.Add(1)
		if req.Address == "bad" {
			return nil, eris.New("provider exploded")
		}
		return &pipeline.Result{Report: &model.Report{Subject: req}}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}

func TestProcessBatch_Limit(t *testing.T) {
	requests := []model.Request{
		{Address: "a", AssetClass: model.AssetClassResidential},
		{Address: "b", AssetClass: model.AssetClassResidential},
		{Address: "c", AssetClass: model.AssetClassResidential},
	}

	var calls atomic.Int64
	err := processBatch(context.Background(), requests, 2, 4, func(context.Context, model.Request) (*pipeline.Result, error) {
		calls.Add(1)
		return &pipeline.Result{Report: &model.Report{}}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestProcessBatch_Empty(t *testing.T) {
	err := processBatch(context.Background(), nil, 0, 4, func(context.Context, model.Request) (*pipeline.Result, error) {
		t.Fatal("should not be called")
		return nil, nil
	})
	require.NoError(t, err)
}

func TestProcessBatch_PausedCounted(t *testing.T) {
	requests := []model.Request{{Address: "a", AssetClass: model.AssetClassResidential}}

	err := processBatch(context.Background(), requests, 0, 1, func(context.Context, model.Request) (*pipeline.Result, error) {
		return &pipeline.Result{Paused: true, Reason: "review"}, nil
	})
	require.NoError(t, err)
}
