package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/analysisclient"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/ingestion"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/pipeline"
)

var (
	filePath     string
	costPerHour  float64
	avgCSAT      float64
	mode         string
	periodMonths int
	reconcileRun bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse an interaction export (CSV or XLSX)",
	Example: `  beyondcx analyze --file calls.csv --cost-per-hour 22 --out result.json
  beyondcx analyze --file calls.csv --cached`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("read %s: %w", filePath, err)
		}

		opts := cfg.AnalysisOptions()
		if cmd.Flags().Changed("cost-per-hour") {
			if costPerHour <= 0 {
				return fmt.Errorf("--cost-per-hour must be positive")
			}
			opts.CostPerHour = costPerHour
		}
		if cmd.Flags().Changed("avg-csat") {
			opts.AvgCSAT = &avgCSAT
		}
		months := cfg.PeriodMonths
		if periodMonths > 0 {
			months = periodMonths
		}

		in := pipeline.Input{
			FileName:     filepath.Base(filePath),
			Data:         data,
			Options:      opts,
			Mode:         analysisclient.ParseMode(mode),
			PeriodMonths: months,
		}

		// --cached skips ingestion and reconciles the service result with the
		// metrics cached by an earlier run
		if !reconcileRun {
			interactions, err := ingestion.NewIngestor(log.Logger).Parse(ctx, filePath)
			if err != nil {
				return err
			}
			validation := ingestion.Validate(interactions)
			for _, w := range validation.Warnings {
				log.Warn().Str("warning", w).Msg("validation")
			}
			if !validation.Valid {
				return fmt.Errorf("%s contains no usable interactions", filePath)
			}
			in.Interactions = interactions
		}

		p, err := newPipeline(ctx)
		if err != nil {
			return err
		}
		result, err := p.Run(ctx, in)
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), result)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&filePath, "file", "f", "", "interaction export to analyse")
	analyzeCmd.Flags().Float64Var(&costPerHour, "cost-per-hour", 20, "fully loaded agent cost per hour")
	analyzeCmd.Flags().Float64Var(&avgCSAT, "avg-csat", 0, "average CSAT (0-100) to report")
	analyzeCmd.Flags().StringVar(&mode, "mode", string(analysisclient.ModePremium), "analysis service mode (basic|premium)")
	analyzeCmd.Flags().IntVar(&periodMonths, "period-months", 0, "months covered by the export (derived from the data when 0)")
	analyzeCmd.Flags().BoolVar(&reconcileRun, "cached", false, "reconcile the service result with cached metrics instead of ingesting")
	analyzeCmd.MarkFlagRequired("file")
}
