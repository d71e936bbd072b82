// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-finder/internal/embedding"
	"github.com/pdiddy/paper-finder/pkg/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective pipeline configuration",
	Long: `Config assembles the configuration every stage would run with — config
file and environment applied over the built-in defaults — and prints it
as YAML. Useful for checking what a config file actually resolves to
before an index build. The API key is omitted from the output.`,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	icfg, err := indexConfig(cmd)
	if err != nil {
		return err
	}

	ecfg := embeddingConfig(cmd)
	ecfg.BatchSize = intSetting(cmd, "batch-size", "embedding.batch_size", embedding.DefaultBatchSize)
	ecfg.Concurrency = intSetting(cmd, "concurrency", "embedding.concurrency", embedding.DefaultConcurrency)

	cfg := types.PipelineConfig{
		Embedding:  ecfg,
		Index:      icfg,
		Retrieve:   retrieveConfig(cmd),
		Relational: relationalConfig(cmd),
		Score:      scoreConfig(cmd),
	}
	cfg.Relational.APIKey = ""

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("rendering configuration: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
}
