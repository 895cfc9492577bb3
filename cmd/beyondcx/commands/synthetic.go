package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/pipeline"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/synthetic"
)

var (
	seed    int64
	records int
)

var syntheticCmd = &cobra.Command{
	Use:   "synthetic",
	Short: "Analyse a generated batch of interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if records <= 0 {
			return fmt.Errorf("--records must be positive")
		}

		gen := synthetic.NewGenerator(seed)
		in := pipeline.Input{
			FileName:     fmt.Sprintf("synthetic-%d.csv", seed),
			Interactions: gen.Interactions(records),
			Options:      cfg.AnalysisOptions(),
			Synthetic:    true,
		}

		// synthetic runs never reach the service or the cache
		result, err := pipeline.New(nil, nil, nil, log.Logger).Run(cmd.Context(), in)
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), result)
	},
}

func init() {
	syntheticCmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	syntheticCmd.Flags().IntVar(&records, "records", 5000, "number of interactions to generate")
}
