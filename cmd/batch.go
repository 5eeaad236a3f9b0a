package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/komps-labs/komps/internal/model"
	"github.com/komps-labs/komps/internal/pipeline"
)

var (
	batchFile  string
	batchLimit int
)

// batchManifest is the YAML input for the batch command: a list of subject
// properties to appraise.
type batchManifest struct {
	Requests []model.Request `yaml:"requests"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Appraise a batch of properties from a YAML manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		requests, err := loadBatchManifest(batchFile)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		return processBatch(ctx, requests, batchLimit, cfg.Batch.MaxConcurrentRuns, func(ctx context.Context, req model.Request) (*pipeline.Result, error) {
			return env.Pipeline.Run(ctx, req)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "YAML manifest of appraisal requests (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of requests to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

func loadBatchManifest(path string) ([]model.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read batch manifest")
	}

	var manifest batchManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, eris.Wrap(err, "parse batch manifest")
	}
	return manifest.Requests, nil
}

// appraiseFunc is the callback signature for running one appraisal.
type appraiseFunc func(ctx context.Context, req model.Request) (*pipeline.Result, error)

// processBatch applies limit, then appraises requests concurrently. An
// individual failure is logged and does not abort the batch.
func processBatch(ctx context.Context, requests []model.Request, limit, concurrency int, appraise appraiseFunc) error {
	if len(requests) == 0 {
		zap.L().Info("no requests in manifest")
		return nil
	}

	if limit > 0 && len(requests) > limit {
		requests = requests[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("requests", len(requests)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, paused, failed atomic.Int64

	for _, req := range requests {
		g.Go(func() error {
			log := zap.L().With(zap.String("address", req.Address))

			result, err := appraise(gctx, req)
			if err != nil {
				failed.Add(1)
				log.Error("appraisal failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}
			if result.Paused {
				paused.Add(1)
				log.Warn("appraisal paused for review", zap.String("reason", result.Reason))
				return nil
			}
			succeeded.Add(1)
			log.Info("appraisal complete",
				zap.Bool("confident", result.Report.Valuation.Confident),
				zap.Int("num_comps", result.Report.Valuation.NumComps),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch wait")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("paused", paused.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
