// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-finder/internal/corpus"
	"github.com/pdiddy/paper-finder/internal/relational"
)

var relationalCmd = &cobra.Command{
	Use:   "relational",
	Short: "Manage the relational projection of the paper snapshot",
	Long: `Relational projects the paper snapshot into a SQLite database with
papers, authors, and paper_authors tables. The projection backs the
text-to-SQL retrieval path (retrieve sql).`,
}

var relationalIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Project a paper snapshot into the database",
	Long: `Ingest reads a JSONL paper snapshot and upserts every paper, author,
and authorship link into the projection database. Re-running over the
same snapshot is safe; changed records are updated in place.`,
	RunE: runRelationalIngest,
}

func runRelationalIngest(cmd *cobra.Command, args []string) error {
	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	if snapshotPath == "" {
		return fmt.Errorf("--snapshot is required")
	}
	cfg := relationalConfig(cmd)

	papers, stats, err := corpus.Load(snapshotPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Loaded %d papers (%d skipped)\n", stats.Loaded, stats.Skipped())

	store, err := relational.NewStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), papers)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Projected %d papers and %d authors into %s\n",
		summary.Papers, summary.Authors, cfg.DBPath)
	return nil
}

func init() {
	relationalIngestCmd.Flags().String("snapshot", "", "paper snapshot JSONL file (required)")
	relationalIngestCmd.Flags().String("db", "", "projection database file (default: papers.db)")

	relationalCmd.AddCommand(relationalIngestCmd)
	rootCmd.AddCommand(relationalCmd)
}
