// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// LMStudioBackend calls the LM Studio OpenAI-compatible chat completions
// endpoint.
type LMStudioBackend struct {
	client      *http.Client
	baseURL     string
	temperature float64
}

// NewLMStudioBackend builds the backend from config, applying defaults
// for unset fields.
func NewLMStudioBackend(cfg types.ModelConfig) *LMStudioBackend {
	timeout := cfg.LMStudioTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	baseURL := cfg.LMStudioBaseURL
	if baseURL == "" {
		baseURL = "http://localhost:1234"
	}
	return &LMStudioBackend{
		client:      &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		temperature: cfg.Temperature,
	}
}

// Name returns the backend identifier.
func (b *LMStudioBackend) Name() string { return "lmstudio" }

// Chat completions API JSON structures.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete posts a single non-streaming chat completion.
func (b *LMStudioBackend) Complete(ctx context.Context, model string, req Request) (string, error) {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: b.temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("lmstudio request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lmstudio returned HTTP %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("parsing lmstudio response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("lmstudio returned no choices")
	}
	return cr.Choices[0].Message.Content, nil
}
