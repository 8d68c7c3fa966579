// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package model provides a uniform text-completion capability over the
// interchangeable local model backends (Ollama, LM Studio) with ordered
// fallback. See docs/ARCHITECTURE § Model Gateway.
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// failurePrefix marks diagnostic strings returned in place of real model
// output. The pipeline has many call sites and cannot afford a hard stop
// mid-research, so the gateway degrades instead of failing; callers use
// IsFailure to tell the two apart.
const failurePrefix = "model error:"

// Request holds the parameters of one completion call. Token budgets are
// caller-supplied per call type: short for scoring (~200), medium for
// extraction (~300-800), long for final synthesis (~2000-5000).
type Request struct {
	Prompt    string
	System    string
	MaxTokens int
}

// Backend serves completions from a single local model server. Each
// implementation owns its base URL, timeout, and wire format.
type Backend interface {
	Name() string
	Complete(ctx context.Context, model string, req Request) (string, error)
}

// Gateway routes completion calls to backends according to the request's
// backend hint.
type Gateway struct {
	ollama   Backend
	lmstudio Backend
	model    string
}

// NewGateway builds a Gateway for the given model name over the two
// standard backends.
func NewGateway(cfg types.ModelConfig, modelName string) *Gateway {
	return &Gateway{
		ollama:   NewOllamaBackend(cfg),
		lmstudio: NewLMStudioBackend(cfg),
		model:    modelName,
	}
}

// NewGatewayWithBackends builds a Gateway over explicit backends. Tests
// use this to substitute fakes.
func NewGatewayWithBackends(ollama, lmstudio Backend, modelName string) *Gateway {
	return &Gateway{ollama: ollama, lmstudio: lmstudio, model: modelName}
}

// Model returns the model name this gateway serves.
func (g *Gateway) Model() string { return g.model }

// Complete runs one completion and never returns an error: every failure
// path yields a diagnostic string (recognizable via IsFailure) so the
// pipeline keeps moving. Routing per hint:
//
//	HintOllama:   Ollama only; its failure is terminal for the call.
//	HintLMStudio: LM Studio first, then Ollama once.
//	HintUnknown:  LM Studio, then Ollama; first success wins.
func (g *Gateway) Complete(ctx context.Context, hint types.BackendHint, req Request) string {
	var chain []Backend
	switch hint {
	case types.HintOllama:
		chain = []Backend{g.ollama}
	default:
		chain = []Backend{g.lmstudio, g.ollama}
	}

	text, err := tryInOrder(ctx, chain, g.model, req)
	if err != nil {
		return fmt.Sprintf("%s %v", failurePrefix, err)
	}
	return text
}

// IsFailure reports whether a Complete result is a diagnostic string
// rather than real model output.
func IsFailure(s string) bool {
	return strings.HasPrefix(s, failurePrefix)
}

// tryInOrder attempts each backend in order and returns the first
// non-empty success. When every backend fails it returns a combined
// error naming each backend's failure.
func tryInOrder(ctx context.Context, chain []Backend, model string, req Request) (string, error) {
	var failures []string
	for _, b := range chain {
		text, err := b.Complete(ctx, model, req)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", b.Name(), err))
			continue
		}
		return strings.TrimSpace(text), nil
	}
	return "", fmt.Errorf("all backends failed: %s", strings.Join(failures, "; "))
}
