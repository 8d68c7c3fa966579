// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lang

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Language
	}{
		{"turkish diacritics", "kuantum bilgisayarlar ışık hızı", Turkish},
		{"turkish stop word", "kuantum bilgisayarlar nedir", Turkish},
		{"french diacritics", "intelligence artificielle générative", French},
		{"french stop words", "comment fonctionne un ordinateur quantique", French},
		{"german diacritics", "künstliche Intelligenz Überblick", German},
		{"german stop words", "was ist das beste Modell", German},
		{"plain english", "best GPU for local LLM inference 2025", English},
		{"empty", "", English},
		{"digits only", "12345", English},
		{"english with short words", "a summary of the state of AI", English},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.text); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetectDeterministic(t *testing.T) {
	// Same input must give the same answer on every call.
	const text = "kuantum bilgisayarlar nedir"
	first := Detect(text)
	for i := 0; i < 10; i++ {
		if got := Detect(text); got != first {
			t.Fatalf("Detect is not deterministic: %q then %q", first, got)
		}
	}
}

func TestDiacriticsBeatStopWords(t *testing.T) {
	// French diacritics outrank a later-priority stop-word match.
	if got := Detect("générative und modern"); got != French {
		t.Errorf("Detect() = %q, want fr: diacritics are the highest-precedence signal", got)
	}
}

func TestLanguageName(t *testing.T) {
	tests := []struct {
		lang Language
		want string
	}{
		{Turkish, "Turkish"},
		{English, "English"},
		{French, "French"},
		{German, "German"},
		{Language("xx"), "English"},
	}
	for _, tt := range tests {
		if got := tt.lang.Name(); got != tt.want {
			t.Errorf("%q.Name() = %q, want %q", tt.lang, got, tt.want)
		}
	}
}
