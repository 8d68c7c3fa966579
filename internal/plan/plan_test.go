// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/deep-research/internal/lang"
	"github.com/pdiddy/deep-research/internal/model"
	"github.com/pdiddy/deep-research/pkg/types"
)

type fakeGateway struct {
	responses []string
	prompts   []string
	systems   []string
}

func (f *fakeGateway) Complete(_ context.Context, _ types.BackendHint, req model.Request) string {
	f.prompts = append(f.prompts, req.Prompt)
	f.systems = append(f.systems, req.System)
	if i := len(f.prompts) - 1; i < len(f.responses) {
		return f.responses[i]
	}
	return ""
}

func TestParseQueries(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		max  int
		want []string
	}{
		{
			name: "numbered list",
			raw:  "1. quantum computing basics\n2. quantum supremacy 2025\n3) qubit error correction",
			max:  5,
			want: []string{"quantum computing basics", "quantum supremacy 2025", "qubit error correction"},
		},
		{
			name: "bullets and quotes",
			raw:  "- \"quantum computing basics\"\n* qubit hardware vendors",
			max:  5,
			want: []string{"quantum computing basics", "qubit hardware vendors"},
		},
		{
			name: "drops short lines",
			raw:  "ok\nquantum computing applications\nq",
			max:  5,
			want: []string{"quantum computing applications"},
		},
		{
			name: "case-insensitive dedup keeps first",
			raw:  "Quantum Computing\nquantum computing\nQUANTUM COMPUTING",
			max:  5,
			want: []string{"Quantum Computing"},
		},
		{
			name: "caps at max",
			raw:  "first search query\nsecond search query\nthird search query",
			max:  2,
			want: []string{"first search query", "second search query"},
		},
		{
			name: "failure text yields nothing",
			raw:  "model error: all backends failed: connection refused",
			max:  5,
			want: nil,
		},
		{
			name: "empty output",
			raw:  "",
			max:  5,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQueries(tt.raw, tt.max)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseQueries() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("query[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanFallsBackOnModelFailure(t *testing.T) {
	g := &fakeGateway{responses: []string{"model error: all backends failed: down"}}
	p := &Planner{Gateway: g, Config: types.PipelineConfig{MaxQueries: 5}}

	got := p.Plan(context.Background(), types.HintUnknown, "quantum computing", lang.English)

	want := FallbackQueries("quantum computing", 5)
	if len(got) != 3 {
		t.Fatalf("Plan() = %v, want 3 fallback queries", got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("query[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFallbackQueries(t *testing.T) {
	got := FallbackQueries("kuantum bilgisayarlar", 5)
	year := fmt.Sprintf("%d", time.Now().Year())

	if len(got) != 3 {
		t.Fatalf("FallbackQueries() = %v, want 3", got)
	}
	if got[0] != "kuantum bilgisayarlar" {
		t.Errorf("query[0] = %q, want the topic itself", got[0])
	}
	if !strings.Contains(got[1], year) {
		t.Errorf("query[1] = %q, want current year variant", got[1])
	}
	if !strings.HasPrefix(got[2], "latest ") {
		t.Errorf("query[2] = %q, want latest variant", got[2])
	}
}

func TestPlanTurkishTopicIssuesTwoPrompts(t *testing.T) {
	g := &fakeGateway{responses: []string{
		"kuantum bilgisayarlar nasıl çalışır\nkuantum bilgisayar uygulamaları",
		"how quantum computers work\nquantum computing applications",
	}}
	p := &Planner{Gateway: g, Config: types.PipelineConfig{MaxQueries: 5}}

	got := p.Plan(context.Background(), types.HintUnknown, "kuantum bilgisayarlar nedir", lang.Turkish)

	if len(g.prompts) != 2 {
		t.Fatalf("made %d model calls, want a primary and a secondary prompt", len(g.prompts))
	}
	if !strings.Contains(g.prompts[0], "Turkish") {
		t.Errorf("primary prompt %q should request queries in Turkish", g.prompts[0])
	}
	if !strings.Contains(g.prompts[1], "English") {
		t.Errorf("secondary prompt %q should request English queries", g.prompts[1])
	}
	want := []string{
		"kuantum bilgisayarlar nasıl çalışır",
		"kuantum bilgisayar uygulamaları",
		"how quantum computers work",
		"quantum computing applications",
	}
	if len(got) != len(want) {
		t.Fatalf("Plan() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("query[%d] = %q, want %q (primary before secondary)", i, got[i], want[i])
		}
	}
	for i, sys := range g.systems {
		if sys == "" {
			t.Errorf("call %d carried no system message", i)
		}
	}
}

func TestPlanEnglishTopicSinglePrompt(t *testing.T) {
	g := &fakeGateway{responses: []string{"quantum computing overview"}}
	p := &Planner{Gateway: g, Config: types.PipelineConfig{MaxQueries: 5}}

	p.Plan(context.Background(), types.HintUnknown, "quantum computing", lang.English)

	if len(g.prompts) != 1 {
		t.Errorf("made %d model calls, want 1 for an English topic", len(g.prompts))
	}
}

func TestPlanDedupsAcrossPrompts(t *testing.T) {
	g := &fakeGateway{responses: []string{
		"quantum computing basics\nkuantum üstünlüğü nedir",
		"Quantum Computing Basics\nquantum supremacy explained",
	}}
	p := &Planner{Gateway: g, Config: types.PipelineConfig{MaxQueries: 5}}

	got := p.Plan(context.Background(), types.HintUnknown, "kuantum bilgisayarlar", lang.Turkish)

	want := []string{
		"quantum computing basics",
		"kuantum üstünlüğü nedir",
		"quantum supremacy explained",
	}
	if len(got) != len(want) {
		t.Fatalf("Plan() = %v, want %v (case-insensitive dedup across prompts)", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("query[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPlanCapsMergedQueries(t *testing.T) {
	g := &fakeGateway{responses: []string{
		"birinci arama sorgusu\nikinci arama sorgusu\nüçüncü arama sorgusu",
		"first english query\nsecond english query",
	}}
	p := &Planner{Gateway: g, Config: types.PipelineConfig{MaxQueries: 4}}

	got := p.Plan(context.Background(), types.HintUnknown, "konu", lang.Turkish)

	if len(got) != 4 {
		t.Fatalf("Plan() = %v, want the merged list capped at 4", got)
	}
	if got[3] != "first english query" {
		t.Errorf("query[3] = %q, want the first secondary query after the primaries", got[3])
	}
}
