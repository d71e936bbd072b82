// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-finder/internal/corpus"
	"github.com/pdiddy/paper-finder/internal/embedding"
	"github.com/pdiddy/paper-finder/internal/index"
	"github.com/pdiddy/paper-finder/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and inspect the dense retrieval index",
	Long: `Index builds a dense vector index from a paper snapshot: each paper is
split into retrieval units (paragraphs, abstract, title, metadata), every
unit is embedded, and the vectors are persisted alongside a manifest
recording the model and unit counts.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed a paper snapshot into a dense index",
	Long: `Build reads a JSONL paper snapshot, extracts the selected unit types,
embeds every unit through the configured model server, and writes the
index to --index-dir. A failed embedding batch aborts the build; no
partial index is written.`,
	RunE: runIndexBuild,
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the manifest of an existing index",
	RunE:  runIndexInfo,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	if snapshotPath == "" {
		return fmt.Errorf("--snapshot is required")
	}
	icfg, err := indexConfig(cmd)
	if err != nil {
		return err
	}
	ecfg := embeddingConfig(cmd)
	ecfg.BatchSize = intSetting(cmd, "batch-size", "embedding.batch_size", embedding.DefaultBatchSize)
	ecfg.Concurrency = intSetting(cmd, "concurrency", "embedding.concurrency", embedding.DefaultConcurrency)

	papers, stats, err := corpus.Load(snapshotPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Loaded %d papers (%d skipped)\n", stats.Loaded, stats.Skipped())

	embedder := embedding.NewFromConfig(ecfg)

	idx, buildStats, err := index.Build(context.Background(), embedder, papers, icfg.UnitTypes, ecfg.BatchSize, ecfg.Concurrency)
	if err != nil {
		return err
	}

	if err := idx.Save(icfg.IndexDir); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Indexed %d units from %d papers in %s (%d papers had no units)\n",
		buildStats.Units, buildStats.PapersIndexed, buildStats.Duration.Round(10*time.Millisecond), buildStats.PapersNoUnits)
	for _, ut := range types.AllUnitTypes {
		if n := buildStats.UnitCounts[ut]; n > 0 {
			fmt.Fprintf(os.Stdout, "  %-10s %d\n", ut, n)
		}
	}
	fmt.Fprintf(os.Stdout, "Index written to %s\n", icfg.IndexDir)
	return nil
}

func runIndexInfo(cmd *cobra.Command, args []string) error {
	icfg, err := indexConfig(cmd)
	if err != nil {
		return err
	}

	manifest, err := index.LoadManifest(icfg.IndexDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Model:      %s (%d dimensions)\n", manifest.ModelName, manifest.EmbeddingDim)
	fmt.Fprintf(os.Stdout, "Units:      %d\n", manifest.NumUnits)
	fmt.Fprintf(os.Stdout, "Papers:     %d\n", manifest.NumPapers)
	fmt.Fprintf(os.Stdout, "Unit types: %v\n", manifest.UnitTypes)
	fmt.Fprintf(os.Stdout, "Created:    %s\n", manifest.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// indexConfig assembles the index stage settings from flags and config.
func indexConfig(cmd *cobra.Command) (types.IndexConfig, error) {
	unitTypes, err := parseUnitTypes(stringSetting(cmd, "unit-types", "index.unit_types", ""))
	if err != nil {
		return types.IndexConfig{}, err
	}
	return types.IndexConfig{
		IndexDir:  stringSetting(cmd, "index-dir", "index.index_dir", "index"),
		UnitTypes: unitTypes,
	}, nil
}

// parseUnitTypes parses a comma-separated unit type list; empty means all.
func parseUnitTypes(s string) ([]types.UnitType, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var unitTypes []types.UnitType
	for _, part := range strings.Split(s, ",") {
		ut, ok := types.ParseUnitType(strings.TrimSpace(part))
		if !ok {
			return nil, fmt.Errorf("unknown unit type %q: use paragraph, abstract, title, or metadata", part)
		}
		unitTypes = append(unitTypes, ut)
	}
	return unitTypes, nil
}

// embeddingConfig assembles the embedding settings shared by index build
// and retrieve.
func embeddingConfig(cmd *cobra.Command) types.EmbeddingConfig {
	return types.EmbeddingConfig{
		BaseURL:    secretDefault("ollama-base-url", stringSetting(cmd, "ollama-url", "embedding.base_url", "")),
		Model:      stringSetting(cmd, "model", "embedding.model", embedding.DefaultModel),
		Dimensions: intSetting(cmd, "dimensions", "embedding.dimensions", embedding.DefaultDimensions),
		Timeout:    viper.GetDuration("embedding.timeout"),
	}
}

// embeddingFlags registers the flags embeddingConfig reads.
func embeddingFlags(cmd *cobra.Command) {
	cmd.Flags().String("ollama-url", "", "embedding server base URL (default: http://localhost:11434)")
	cmd.Flags().String("model", "", "embedding model name (default: nomic-embed-text)")
	cmd.Flags().Int("dimensions", 0, "embedding vector width (default: 768)")
}

func init() {
	indexBuildCmd.Flags().String("snapshot", "", "paper snapshot JSONL file (required)")
	indexBuildCmd.Flags().String("index-dir", "", "directory to write the index to (default: index)")
	indexBuildCmd.Flags().String("unit-types", "", "comma-separated unit types to index (default: all)")
	indexBuildCmd.Flags().Int("batch-size", 0, "texts per embedding request (default: 32)")
	indexBuildCmd.Flags().Int("concurrency", 0, "embedding batches in flight (default: 4)")
	embeddingFlags(indexBuildCmd)

	indexInfoCmd.Flags().String("index-dir", "", "directory of the index to inspect (default: index)")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}
