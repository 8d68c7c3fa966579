// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research pipeline over HTTP: a WebSocket
// endpoint streaming progress while a run executes, and a synchronous
// POST endpoint for scripted use.
//
// docs/ARCHITECTURE § Server.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/pipeline"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Runner executes one research request. *pipeline.Pipeline satisfies
// it; tests supply fakes.
type Runner interface {
	Run(ctx context.Context, req types.ResearchRequest, sink pipeline.Sink) (*types.ResearchReport, string, error)
}

// Server serves the research API.
type Server struct {
	Runner Runner
	Config types.ServerConfig
	Logger *zap.Logger
}

// New builds a Server.
func New(runner Runner, cfg types.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Runner: runner, Config: cfg, Logger: logger}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/research_ws", s.handleWS)
	mux.HandleFunc("/research", s.handleResearch)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Config.Addr,
		Handler: s.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	s.Logger.Info("server listening", zap.String("addr", s.Config.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// researchResponse is the synchronous endpoint's reply.
type researchResponse struct {
	Topic       string `json:"topic"`
	Language    string `json:"language"`
	ReportPath  string `json:"report_path"`
	WebVerified bool   `json:"web_verified"`
	Sources     int    `json:"sources"`
	Report      string `json:"report"`
}

// handleResearch runs one request to completion and returns the
// finished report. Progress is logged but not streamed.
func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var wire wireRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	req := wire.toRequest()
	if req.Topic == "" {
		http.Error(w, "topic is required", http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()
	logger := s.Logger.With(zap.String("request_id", requestID))
	logger.Info("research request", zap.String("topic", req.Topic))

	rep, path, err := s.Runner.Run(r.Context(), req, logSink{logger: logger})
	if err != nil {
		logger.Error("research failed", zap.Error(err))
		http.Error(w, fmt.Sprintf("research failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(researchResponse{
		Topic:       rep.Topic,
		Language:    rep.Language,
		ReportPath:  path,
		WebVerified: rep.WebVerified,
		Sources:     len(rep.Items),
		Report:      rep.Body,
	})
}

// logSink routes pipeline progress to the request logger.
type logSink struct {
	logger *zap.Logger
}

func (s logSink) Progress(step float64, message string) {
	s.logger.Info("progress", zap.Float64("step", step), zap.String("message", message))
}

func (s logSink) Message(message string) {
	s.logger.Debug("pipeline", zap.String("message", message))
}
