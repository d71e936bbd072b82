// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-finder CLI.
// Implements: prd001-corpus, prd002-dense-index, prd003-retrieval,
//             prd004-relational, prd005-evaluation (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-finder/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the paper-finder CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-finder",
	Short: "Re-find academic papers from natural-language descriptions",
	Long: `paper-finder answers "what was that paper?" queries over a local snapshot
of academic papers. It builds a dense retrieval index from paper units
(paragraphs, abstracts, titles, metadata), projects the snapshot into a
relational database for SQL-style questions, and scores both retrieval
paths against gold query sets.

Each pipeline stage is a subcommand: index, retrieve, relational, and
score. Stages communicate through files, so each can be re-run alone.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-finder.yaml or ~/.config/paper-finder/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-finder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-finder"))
		}
	}

	viper.SetEnvPrefix("PAPER_FINDER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// stringSetting resolves a string option: explicit flag, then config file,
// then the built-in fallback.
func stringSetting(cmd *cobra.Command, flag, viperKey, fallback string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if viper.IsSet(viperKey) {
		return viper.GetString(viperKey)
	}
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return fallback
}

// intSetting resolves an int option the same way as stringSetting.
func intSetting(cmd *cobra.Command, flag, viperKey string, fallback int) int {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	if viper.IsSet(viperKey) {
		return viper.GetInt(viperKey)
	}
	if v, _ := cmd.Flags().GetInt(flag); v != 0 {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
