// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// OllamaBackend calls the Ollama generate endpoint. Its timeout is the
// longest in the gateway because a cold model load can take minutes.
type OllamaBackend struct {
	client      *http.Client
	baseURL     string
	temperature float64
}

// NewOllamaBackend builds the backend from config, applying defaults for
// unset fields.
func NewOllamaBackend(cfg types.ModelConfig) *OllamaBackend {
	timeout := cfg.OllamaTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	baseURL := cfg.OllamaBaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaBackend{
		client:      &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		temperature: cfg.Temperature,
	}
}

// Name returns the backend identifier.
func (b *OllamaBackend) Name() string { return "ollama" }

// Ollama generate API JSON structures.
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Complete posts a single non-streaming generate request.
func (b *OllamaBackend) Complete(ctx context.Context, model string, req Request) (string, error) {
	payload := ollamaRequest{
		Model:  model,
		Prompt: fmt.Sprintf("User: %s\n\nAssistant:", req.Prompt),
		System: req.System,
		Stream: false,
		Options: ollamaOptions{
			Temperature: b.temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama returned HTTP %d: %s", resp.StatusCode, string(detail))
	}

	var or ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", fmt.Errorf("parsing ollama response: %w", err)
	}
	return or.Response, nil
}
