// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestParseBackendHint(t *testing.T) {
	tests := []struct {
		source string
		want   BackendHint
	}{
		{"Ollama", HintOllama},
		{"LM Studio", HintLMStudio},
		{"", HintUnknown},
		{"ollama", HintUnknown}, // wire literal is case-sensitive
		{"something else", HintUnknown},
	}
	for _, tt := range tests {
		if got := ParseBackendHint(tt.source); got != tt.want {
			t.Errorf("ParseBackendHint(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}
