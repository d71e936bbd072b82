// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-finder/internal/embedding"
	"github.com/pdiddy/paper-finder/internal/index"
	"github.com/pdiddy/paper-finder/internal/relational"
	"github.com/pdiddy/paper-finder/internal/retrieval"
	"github.com/pdiddy/paper-finder/pkg/types"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Answer paper-finding queries against the index or the database",
	Long: `Retrieve answers natural-language queries through one of two paths:
dense similarity search over the unit index, or SQL generated from the
query and executed against the relational projection.

With --queries, a JSONL query file is processed and ranked results are
written for scoring. With a positional query, the ranking is printed.`,
}

var retrieveDenseCmd = &cobra.Command{
	Use:   "dense [query]",
	Short: "Dense similarity search over the unit index",
	Long: `Dense embeds the query with the same model the index was built with and
ranks papers by the maximum similarity across their units. The index
manifest supplies the model unless --model overrides it; a model
mismatch is refused rather than silently producing garbage rankings.`,
	RunE: runRetrieveDense,
}

func runRetrieveDense(cmd *cobra.Command, args []string) error {
	icfg, err := indexConfig(cmd)
	if err != nil {
		return err
	}

	idx, err := index.Load(icfg.IndexDir)
	if err != nil {
		return err
	}

	// The manifest is the source of truth for the model unless the caller
	// overrides it, in which case NewEngine enforces the match.
	cfg := embeddingConfig(cmd)
	if !cmd.Flags().Changed("model") && !viper.IsSet("embedding.model") {
		cfg.Model = idx.Manifest.ModelName
		cfg.Dimensions = idx.Manifest.EmbeddingDim
	}

	engine, err := retrieval.NewEngine(idx, embedding.NewFromConfig(cfg))
	if err != nil {
		return err
	}

	rcfg := retrieveConfig(cmd)

	queriesPath, _ := cmd.Flags().GetString("queries")
	if queriesPath != "" {
		return runQueryFile(cmd, queriesPath, rcfg.K, func(ctx context.Context, queries []types.QueryRecord) ([]types.ResultRecord, error) {
			return engine.RetrieveBatch(ctx, queries, rcfg.K, rcfg.Concurrency)
		})
	}

	if len(args) == 0 {
		return fmt.Errorf("provide a query argument or --queries FILE")
	}
	ranked, err := engine.Retrieve(context.Background(), strings.Join(args, " "), rcfg.K)
	if err != nil {
		return err
	}
	printRanking(ranked)
	return nil
}

// retrieveConfig assembles the query-time settings from flags and config.
func retrieveConfig(cmd *cobra.Command) types.RetrieveConfig {
	return types.RetrieveConfig{
		K:           intSetting(cmd, "k", "retrieve.k", retrieval.DefaultK),
		Concurrency: intSetting(cmd, "concurrency", "retrieve.concurrency", 4),
	}
}

// relationalConfig assembles the projection and text-to-SQL settings.
// The API key resolves from flags/config, then .secrets/, then the
// environment.
func relationalConfig(cmd *cobra.Command) types.RelationalConfig {
	return types.RelationalConfig{
		AIConfig: types.AIConfig{
			Model:      stringSetting(cmd, "ai-model", "relational.model", "claude-sonnet-4-5"),
			APIKey:     secretDefault("anthropic-api-key", os.Getenv("ANTHROPIC_API_KEY")),
			MaxRetries: intSetting(cmd, "max-retries", "relational.max_retries", 3),
		},
		DBPath: stringSetting(cmd, "db", "relational.db_path", "papers.db"),
	}
}

var retrieveSQLCmd = &cobra.Command{
	Use:   "sql [query]",
	Short: "Text-to-SQL retrieval over the relational projection",
	Long: `SQL sends the query and the database schema to the Claude API, executes
the generated SELECT statement against the projection database, and maps
the rows to a ranked result. Statements that are not plain SELECTs are
refused before execution.`,
	RunE: runRetrieveSQL,
}

func runRetrieveSQL(cmd *cobra.Command, args []string) error {
	cfg := relationalConfig(cmd)
	if cfg.APIKey == "" {
		return fmt.Errorf("no Anthropic API key: set ANTHROPIC_API_KEY or .secrets/anthropic-api-key")
	}
	k := retrieveConfig(cmd).K

	store, err := relational.NewStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	backend := relational.NewClaudeBackend(cfg.AIConfig, k)

	queriesPath, _ := cmd.Flags().GetString("queries")
	if queriesPath != "" {
		return runQueryFile(cmd, queriesPath, k, func(ctx context.Context, queries []types.QueryRecord) ([]types.ResultRecord, error) {
			records := make([]types.ResultRecord, len(queries))
			for i, q := range queries {
				ranked, err := store.Retrieve(ctx, backend, q.Query, k)
				if err != nil {
					return nil, fmt.Errorf("query %d (%q): %w", i+1, q.Query, err)
				}
				records[i] = types.ResultRecord{Query: q.Query, Expected: q.PaperID, Retrieved: ranked}
			}
			return records, nil
		})
	}

	if len(args) == 0 {
		return fmt.Errorf("provide a query argument or --queries FILE")
	}
	ranked, err := store.Retrieve(context.Background(), backend, strings.Join(args, " "), k)
	if err != nil {
		return err
	}
	printRanking(ranked)
	return nil
}

// runQueryFile loads a query file, runs it through the given retriever,
// and writes the result records to --output.
func runQueryFile(cmd *cobra.Command, queriesPath string, k int,
	retrieve func(context.Context, []types.QueryRecord) ([]types.ResultRecord, error)) error {

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		return fmt.Errorf("--output is required with --queries")
	}

	queries, err := retrieval.LoadQueries(queriesPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Running %d queries (k=%d)\n", len(queries), k)

	records, err := retrieve(context.Background(), queries)
	if err != nil {
		return err
	}

	if err := retrieval.WriteResults(outputPath, records); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote %d results to %s\n", len(records), outputPath)
	return nil
}

func printRanking(ranked types.RankedResult) {
	if len(ranked) == 0 {
		fmt.Println("No results found.")
		return
	}
	fmt.Fprintf(os.Stdout, "%-4s  %-10s  %s\n", "Rank", "Score", "Paper")
	for i, sp := range ranked {
		fmt.Fprintf(os.Stdout, "%-4d  %-10.4f  %s\n", i+1, sp.Score, sp.PaperID)
	}
}

func init() {
	retrieveDenseCmd.Flags().String("index-dir", "", "directory of the index to search (default: index)")
	retrieveDenseCmd.Flags().String("queries", "", "JSONL query file to run")
	retrieveDenseCmd.Flags().String("output", "", "JSONL results file to write (required with --queries)")
	retrieveDenseCmd.Flags().Int("k", 0, "maximum papers per query (default: 100)")
	retrieveDenseCmd.Flags().Int("concurrency", 0, "queries in flight (default: 4)")
	embeddingFlags(retrieveDenseCmd)

	retrieveSQLCmd.Flags().String("db", "", "projection database file (default: papers.db)")
	retrieveSQLCmd.Flags().String("queries", "", "JSONL query file to run")
	retrieveSQLCmd.Flags().String("output", "", "JSONL results file to write (required with --queries)")
	retrieveSQLCmd.Flags().Int("k", 0, "maximum papers per query (default: 100)")
	retrieveSQLCmd.Flags().String("ai-model", "", "Claude model for SQL generation (default: claude-sonnet-4-5)")
	retrieveSQLCmd.Flags().Int("max-retries", 0, "rate-limit retries per API call (default: 3)")

	retrieveCmd.AddCommand(retrieveDenseCmd)
	retrieveCmd.AddCommand(retrieveSQLCmd)
	rootCmd.AddCommand(retrieveCmd)
}
