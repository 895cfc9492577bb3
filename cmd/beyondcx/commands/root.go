package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/analysisclient"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/config"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/logging"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/pipeline"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/report"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/storage"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/types"
)

var (
	// Version is set at build time via ldflags.
	Version = "dev"

	verbose bool
	outPath string
	xlsxOut string
	cfg     *config.Config
	closer  io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "beyondcx",
	Short: "BeyondCX analyses contact-center interaction exports",
	Long: `Computes per skill group operational metrics, agentic readiness tiers,
savings opportunities and an automation roadmap from an interaction export.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		// stdout carries the result, logs go to stderr only
		closer, err = logging.Init(logging.Level(cfg.LogLevel, verbose), "")
		if err != nil {
			return err
		}

		log.Debug().Str("version", Version).Msg("beyondcx starting")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closer != nil {
			closer.Close()
		}
	},
}

// Execute runs the root command. Interrupts cancel the running analysis.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "write the JSON result to this file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&xlsxOut, "xlsx", "", "also write the result as an Excel workbook")

	rootCmd.AddCommand(analyzeCmd, syntheticCmd)
}

// newPipeline wires the pipeline the same way the server does
func newPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	cache, err := storage.NewCache(ctx, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics cache: %w", err)
	}

	var service pipeline.AnalysisService
	if cfg.AnalysisServiceEnabled() {
		client := analysisclient.New(analysisclient.Config{
			BaseURL:  cfg.AnalysisServiceURL,
			Username: cfg.AnalysisServiceUser,
			Password: cfg.AnalysisServicePassword,
			Timeout:  cfg.AnalysisTimeout,
		}, log.Logger)
		service = analysisclient.NewRetrying(client, cfg.AnalysisMaxRetry, log.Logger)
	}

	return pipeline.New(service, cache, nil, log.Logger), nil
}

func writeResult(w io.Writer, result *types.AnalysisResult) error {
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if xlsxOut != "" {
		if err := report.WriteWorkbook(result, xlsxOut); err != nil {
			return err
		}
		log.Info().Str("file", xlsxOut).Msg("workbook written")
	}

	log.Info().
		Str("run_id", result.RunID).
		Str("provenance", string(result.Provenance)).
		Int("skill_groups", len(result.SkillGroups)).
		Float64("annual_cost", result.Summary.AnnualCost).
		Msg("analysis finished")
	return nil
}
