// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deep-research CLI.
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/secrets"
	"github.com/pdiddy/deep-research/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the deep-research CLI.
var rootCmd = &cobra.Command{
	Use:   "deep-research",
	Short: "Iterative web research with local language models",
	Long: `deep-research runs an iterative research pipeline against local model
servers (Ollama, LM Studio): it plans search queries for a topic, collects
and scores web evidence, analyzes conflicts and gaps, and writes a cited
Markdown report.

Run a single topic with the research subcommand, or start the streaming
WebSocket server with serve.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deep-research.yaml or ~/.config/deep-research/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deep-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deep-research"))
		}
	}

	viper.SetEnvPrefix("DEEP_RESEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig builds the runtime configuration: defaults, overlaid with
// config-file and environment values, with the Tavily key falling back
// to the secrets directory.
func loadConfig() types.Config {
	cfg := types.Defaults()

	if v := viper.GetString("model.ollama_url"); v != "" {
		cfg.Model.OllamaBaseURL = v
	}
	if v := viper.GetString("model.lmstudio_url"); v != "" {
		cfg.Model.LMStudioBaseURL = v
	}
	if v := viper.GetDuration("model.ollama_timeout"); v > 0 {
		cfg.Model.OllamaTimeout = v
	}
	if v := viper.GetDuration("model.lmstudio_timeout"); v > 0 {
		cfg.Model.LMStudioTimeout = v
	}
	if v := viper.GetString("search.tavily_api_key"); v != "" {
		cfg.Search.TavilyAPIKey = v
	} else if v, ok := loadedSecrets[secrets.TavilyAPIKey]; ok {
		cfg.Search.TavilyAPIKey = v
	}
	if v := viper.GetInt("search.results_per_query"); v > 0 {
		cfg.Search.ResultsPerQuery = v
	}
	if v := viper.GetInt("pipeline.max_queries"); v > 0 {
		cfg.Pipeline.MaxQueries = v
	}
	if v := viper.GetInt("pipeline.max_candidates"); v > 0 {
		cfg.Pipeline.MaxCandidates = v
	}
	if viper.IsSet("pipeline.relevance_filter") {
		cfg.Pipeline.RelevanceFilter = viper.GetBool("pipeline.relevance_filter")
	}
	if v := viper.GetString("report.reports_dir"); v != "" {
		cfg.Report.ReportsDir = v
	}
	if v := viper.GetString("report.archive_dir"); v != "" {
		cfg.Report.ArchiveDir = v
	}
	if v := viper.GetString("server.addr"); v != "" {
		cfg.Server.Addr = v
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
