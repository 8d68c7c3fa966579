// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// --- fake backend ---

type fakeBackend struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Complete(_ context.Context, _ string, _ Request) (string, error) {
	f.calls++
	return f.text, f.err
}

// --- hint routing ---

func TestCompleteOllamaHintNoFallback(t *testing.T) {
	ollama := &fakeBackend{name: "ollama", err: fmt.Errorf("connection refused")}
	lmstudio := &fakeBackend{name: "lmstudio", text: "should not be used"}
	g := NewGatewayWithBackends(ollama, lmstudio, "test-model")

	got := g.Complete(context.Background(), types.HintOllama, Request{Prompt: "p"})

	if !IsFailure(got) {
		t.Errorf("Complete() = %q, want failure text", got)
	}
	if lmstudio.calls != 0 {
		t.Errorf("lmstudio called %d times, want 0: ollama hint must not fall back", lmstudio.calls)
	}
	if ollama.calls != 1 {
		t.Errorf("ollama called %d times, want 1", ollama.calls)
	}
}

func TestCompleteLMStudioHintFallsBackToOllama(t *testing.T) {
	ollama := &fakeBackend{name: "ollama", text: "from ollama"}
	lmstudio := &fakeBackend{name: "lmstudio", err: fmt.Errorf("not running")}
	g := NewGatewayWithBackends(ollama, lmstudio, "test-model")

	got := g.Complete(context.Background(), types.HintLMStudio, Request{Prompt: "p"})

	if got != "from ollama" {
		t.Errorf("Complete() = %q, want fallback content", got)
	}
	if lmstudio.calls != 1 || ollama.calls != 1 {
		t.Errorf("calls = lmstudio:%d ollama:%d, want 1/1 in that order", lmstudio.calls, ollama.calls)
	}
}

func TestCompleteLMStudioHintPrefersLMStudio(t *testing.T) {
	// Primary (ollama) always fails, secondary (lmstudio) always succeeds:
	// the lmstudio hint must return the secondary's content without ever
	// needing the primary.
	ollama := &fakeBackend{name: "ollama", err: fmt.Errorf("down")}
	lmstudio := &fakeBackend{name: "lmstudio", text: "from lmstudio"}
	g := NewGatewayWithBackends(ollama, lmstudio, "test-model")

	got := g.Complete(context.Background(), types.HintLMStudio, Request{Prompt: "p"})

	if got != "from lmstudio" {
		t.Errorf("Complete() = %q, want %q", got, "from lmstudio")
	}
	if ollama.calls != 0 {
		t.Errorf("ollama called %d times, want 0 when lmstudio succeeds", ollama.calls)
	}
}

func TestCompleteUnknownHintOrder(t *testing.T) {
	ollama := &fakeBackend{name: "ollama", text: "from ollama"}
	lmstudio := &fakeBackend{name: "lmstudio", text: "from lmstudio"}
	g := NewGatewayWithBackends(ollama, lmstudio, "test-model")

	got := g.Complete(context.Background(), types.HintUnknown, Request{Prompt: "p"})

	if got != "from lmstudio" {
		t.Errorf("Complete() = %q: unknown hint must try lmstudio first", got)
	}
}

func TestCompleteAllBackendsFail(t *testing.T) {
	ollama := &fakeBackend{name: "ollama", err: fmt.Errorf("down")}
	lmstudio := &fakeBackend{name: "lmstudio", err: fmt.Errorf("also down")}
	g := NewGatewayWithBackends(ollama, lmstudio, "test-model")

	got := g.Complete(context.Background(), types.HintUnknown, Request{Prompt: "p"})

	if !IsFailure(got) {
		t.Fatalf("Complete() = %q, want failure text", got)
	}
	// The combined failure names both backends.
	if !strings.Contains(got, "lmstudio") || !strings.Contains(got, "ollama") {
		t.Errorf("failure text %q should name both backends", got)
	}
}

func TestIsFailure(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"diagnostic", "model error: all backends failed: x", true},
		{"real content", "Quantum computers use qubits.", false},
		{"empty", "", false},
		{"mention mid-text", "the phrase model error: appears here", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFailure(tt.in); got != tt.want {
				t.Errorf("IsFailure(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// --- wire formats ---

func TestOllamaBackendWireFormat(t *testing.T) {
	var captured ollamaRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "  hello  "})
	}))
	defer ts.Close()

	b := NewOllamaBackend(types.ModelConfig{
		OllamaBaseURL: ts.URL,
		OllamaTimeout: 5 * time.Second,
		Temperature:   0.3,
	})

	got, err := b.Complete(context.Background(), "llama3.1", Request{Prompt: "question", System: "sys", MaxTokens: 200})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got != "  hello  " {
		t.Errorf("Complete() = %q", got)
	}
	if captured.Model != "llama3.1" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.Stream {
		t.Error("stream must be false")
	}
	if captured.System != "sys" {
		t.Errorf("system = %q", captured.System)
	}
	if captured.Options.NumPredict != 200 {
		t.Errorf("num_predict = %d, want 200", captured.Options.NumPredict)
	}
	if captured.Options.Temperature != 0.3 {
		t.Errorf("temperature = %f, want 0.3", captured.Options.Temperature)
	}
}

func TestLMStudioBackendWireFormat(t *testing.T) {
	var captured chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`)
	}))
	defer ts.Close()

	b := NewLMStudioBackend(types.ModelConfig{
		LMStudioBaseURL: ts.URL,
		LMStudioTimeout: 5 * time.Second,
		Temperature:     0.3,
	})

	got, err := b.Complete(context.Background(), "qwen", Request{Prompt: "question", System: "sys", MaxTokens: 500})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got != "hi" {
		t.Errorf("Complete() = %q", got)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Errorf("messages = %+v, want system then user", captured.Messages)
	}
	if captured.MaxTokens != 500 {
		t.Errorf("max_tokens = %d, want 500", captured.MaxTokens)
	}
}

func TestLMStudioBackendOmitsEmptySystemMessage(t *testing.T) {
	var captured chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`)
	}))
	defer ts.Close()

	b := NewLMStudioBackend(types.ModelConfig{LMStudioBaseURL: ts.URL, LMStudioTimeout: 5 * time.Second})

	if _, err := b.Complete(context.Background(), "qwen", Request{Prompt: "question", MaxTokens: 10}); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want only the user message without a system persona", captured.Messages)
	}
}

func TestLMStudioBackendHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	b := NewLMStudioBackend(types.ModelConfig{LMStudioBaseURL: ts.URL, LMStudioTimeout: 5 * time.Second})

	_, err := b.Complete(context.Background(), "m", Request{Prompt: "p"})
	if err == nil {
		t.Fatal("Complete() should fail on HTTP 500")
	}
}
