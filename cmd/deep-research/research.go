// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/archive"
	"github.com/pdiddy/deep-research/internal/pipeline"
	"github.com/pdiddy/deep-research/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Research a topic and write a cited Markdown report",
	Long: `Research runs the full pipeline for one topic: query planning, web
search with fallback, page fetching, reliability scoring, conflict and gap
analysis, and report synthesis. The report lands in the reports directory
and the run is recorded in the local archive.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("model", "llama3.1", "model name on the local server")
	researchCmd.Flags().String("source", "", "model server: Ollama or \"LM Studio\" (default: autodetect)")
	researchCmd.Flags().Bool("verbose", false, "log pipeline internals")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	modelName, _ := cmd.Flags().GetString("model")
	source, _ := cmd.Flags().GetString("source")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg := loadConfig()

	logger, err := buildLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := archive.NewStore(cfg.Report.ArchiveDir)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer store.Close()

	p := pipeline.New(cfg, modelName, store, logger)

	req := types.ResearchRequest{
		Topic: topic,
		Model: types.ModelSpec{Name: modelName, Hint: types.ParseBackendHint(source)},
	}

	rep, path, err := p.Run(cmd.Context(), req, consoleSink{})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nReport: %s\n", path)
	fmt.Fprintf(os.Stdout, "Sources: %d, language: %s, web verified: %v\n",
		len(rep.Items), rep.Language, rep.WebVerified)
	return nil
}

// buildLogger returns a production zap logger, or a development one
// with debug output when verbose is set.
func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// consoleSink prints pipeline progress to stdout.
type consoleSink struct{}

func (consoleSink) Progress(step float64, message string) {
	fmt.Fprintf(os.Stdout, "[%3.0f%%] %s\n", step*100, message)
}

func (consoleSink) Message(message string) {
	fmt.Fprintf(os.Stdout, "       %s\n", message)
}
