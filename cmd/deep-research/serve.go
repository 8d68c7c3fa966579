// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/archive"
	"github.com/pdiddy/deep-research/internal/pipeline"
	"github.com/pdiddy/deep-research/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the streaming research server",
	Long: `Serve starts the HTTP server: /research_ws streams progress events over
a WebSocket while research runs, /research answers synchronous POST
requests, and /healthz reports liveness. The server runs until
interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8001)")
	serveCmd.Flags().String("model", "llama3.1", "default model name on the local server")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	modelName, _ := cmd.Flags().GetString("model")

	logger, err := buildLogger(false)
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
	srv := server.New(p, cfg.Server, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
