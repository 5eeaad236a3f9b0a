package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/komps-labs/komps/internal/model"
)

var (
	runAddress    string
	runListingID  string
	runAssetClass string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Appraise a single property",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req := model.Request{
			Address:    runAddress,
			ListingID:  runListingID,
			AssetClass: model.AssetClass(runAssetClass),
		}

		result, err := env.Pipeline.Run(ctx, req)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		if result.Paused {
			zap.L().Info("run paused for review",
				zap.String("run_id", result.RunID),
				zap.String("reason", result.Reason),
			)
		} else {
			zap.L().Info("appraisal complete",
				zap.String("run_id", result.RunID),
				zap.Bool("confident", result.Report.Valuation.Confident),
				zap.Int("num_comps", result.Report.Valuation.NumComps),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runAddress, "address", "", "subject property address (required)")
	runCmd.Flags().StringVar(&runListingID, "listing-id", "", "listing identifier (MLS/ZPID)")
	runCmd.Flags().StringVar(&runAssetClass, "asset-class", "residential", "asset class: residential, commercial, industrial")
	_ = runCmd.MarkFlagRequired("address")
	rootCmd.AddCommand(runCmd)
}
