// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-finder/internal/score"
	"github.com/pdiddy/paper-finder/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a results file against its gold papers",
	Long: `Score reads a JSONL results file produced by retrieve and reports
hits@k and mean reciprocal rank over the gold paper each query carries.
Metrics can optionally be written to a YAML file for comparison runs.`,
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	resultsPath, _ := cmd.Flags().GetString("results")
	if resultsPath == "" {
		return fmt.Errorf("--results is required")
	}

	records, err := score.ReadResults(resultsPath)
	if err != nil {
		return err
	}

	metrics := score.Evaluate(records, scoreConfig(cmd).Ks)
	fmt.Fprint(os.Stdout, metrics.String())

	if outputPath, _ := cmd.Flags().GetString("output"); outputPath != "" {
		if err := metrics.WriteYAML(outputPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Metrics written to %s\n", outputPath)
	}
	return nil
}

// scoreConfig assembles the evaluation settings from flags and config.
func scoreConfig(cmd *cobra.Command) types.ScoreConfig {
	ks, _ := cmd.Flags().GetIntSlice("k")
	if len(ks) == 0 && viper.IsSet("score.ks") {
		ks = viper.GetIntSlice("score.ks")
	}
	if len(ks) == 0 {
		ks = score.DefaultKs
	}
	return types.ScoreConfig{Ks: ks}
}

func init() {
	scoreCmd.Flags().String("results", "", "JSONL results file to score (required)")
	scoreCmd.Flags().IntSlice("k", nil, "hits@k cutoffs (default: 1,5)")
	scoreCmd.Flags().String("output", "", "YAML file to write metrics to")

	rootCmd.AddCommand(scoreCmd)
}
