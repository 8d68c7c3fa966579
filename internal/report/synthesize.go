// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report turns scored evidence into a cited Markdown report
// and persists it. Synthesis is the pipeline's single long model call;
// rendering and persistence are deterministic.
//
// docs/ARCHITECTURE § Reporting.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/deep-research/internal/lang"
	"github.com/pdiddy/deep-research/internal/model"
	"github.com/pdiddy/deep-research/pkg/types"
)

// writerSystem keeps the model in role for the synthesis calls.
const writerSystem = "You are a research report writer. You write clear, accurate, cited Markdown reports."

// Gateway is the model surface synthesis needs.
type Gateway interface {
	Complete(ctx context.Context, hint types.BackendHint, req model.Request) string
}

// Synthesizer produces the report body.
type Synthesizer struct {
	Gateway Gateway
	Config  types.ReportConfig
}

// Synthesize fills rep.Body. With evidence present the model writes a
// cited report grounded in the collected sources; with none it falls
// back to model knowledge and the report is marked unverified. A
// failed synthesis call degrades to a mechanical assembly of the
// per-source analyses so the run still produces a report.
func (s *Synthesizer) Synthesize(ctx context.Context, hint types.BackendHint, language lang.Language, rep *types.ResearchReport) {
	if len(rep.Items) == 0 {
		s.synthesizeUnverified(ctx, hint, language, rep)
		return
	}

	rep.WebVerified = true
	body := s.Gateway.Complete(ctx, hint, model.Request{
		Prompt:    synthesisPrompt(language, rep),
		System:    writerSystem,
		MaxTokens: s.Config.MaxTokens,
	})
	if model.IsFailure(body) || strings.TrimSpace(body) == "" {
		rep.Body = assembleFallbackBody(rep)
		return
	}
	rep.Body = strings.TrimSpace(body)
}

// synthesizeUnverified writes the report from model knowledge alone.
// The body is explicitly labeled so readers know nothing in it was
// checked against live sources.
func (s *Synthesizer) synthesizeUnverified(ctx context.Context, hint types.BackendHint, language lang.Language, rep *types.ResearchReport) {
	rep.WebVerified = false
	prompt := fmt.Sprintf(
		"Web research produced no usable sources for the topic below. Write a report on it from your own knowledge.\n\nTopic: %s\n\nWrite the report in %s, in Markdown, with an overview, key points, and a short conclusion. State clearly that the content is based on model knowledge.",
		rep.Topic, language.Name())
	body := s.Gateway.Complete(ctx, hint, model.Request{Prompt: prompt, System: writerSystem, MaxTokens: s.Config.MaxTokens})
	if model.IsFailure(body) || strings.TrimSpace(body) == "" {
		body = fmt.Sprintf("No usable sources were found for %q and the model was unavailable for a knowledge-based summary.", rep.Topic)
	}
	rep.Body = "> **Note:** This report is based on model knowledge and was not verified against web sources.\n\n" + strings.TrimSpace(body)
}

// synthesisPrompt assembles the long-form instruction: the evidence
// with scores, the conflict description verbatim, the gap notes, and
// the structural requirements for the Markdown output.
func synthesisPrompt(language lang.Language, rep *types.ResearchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a research report on: %s\n\n", rep.Topic)
	fmt.Fprintf(&b, "Use only the numbered sources below. Cite them inline as [1], [2], and so on.\n\n")

	for i, it := range rep.Items {
		fmt.Fprintf(&b, "[%d] %s (reliability %d/100)\nURL: %s\nAnalysis: %s\n",
			i+1, it.Source, it.ReliabilityScore, it.URL, it.AnalysisSummary)
		if it.SpecificData != "" {
			fmt.Fprintf(&b, "Facts: %s\n", it.SpecificData)
		}
		b.WriteString("\n")
	}

	if rep.ConflictNotes != "" {
		fmt.Fprintf(&b, "The sources disagree:\n%s\nAddress these contradictions explicitly in the report.\n\n", rep.ConflictNotes)
	}
	if len(rep.GapNotes) > 0 {
		fmt.Fprintf(&b, "Known information gaps:\n")
		for _, gapNote := range rep.GapNotes {
			fmt.Fprintf(&b, "- %s\n", gapNote)
		}
		b.WriteString("Mention what remains unknown.\n\n")
	}

	fmt.Fprintf(&b, "Requirements:\n")
	fmt.Fprintf(&b, "- Write the report in %s.\n", language.Name())
	b.WriteString("- Markdown with ## section headings: overview, main findings, conflicting information (if any), open questions, conclusion.\n")
	b.WriteString("- Prefer higher-reliability sources when sources disagree.\n")
	b.WriteString("- Do not invent facts that are not in the sources.\n")
	b.WriteString("- Do not add your own sources section; it is appended separately.")
	return b.String()
}

// assembleFallbackBody builds a minimal report mechanically from the
// per-source analyses when the synthesis call fails.
func assembleFallbackBody(rep *types.ResearchReport) string {
	var b strings.Builder
	b.WriteString("> **Note:** Report synthesis was unavailable; this is an automatic assembly of the per-source analyses.\n\n")
	b.WriteString("## Findings by source\n\n")
	for i, it := range rep.Items {
		fmt.Fprintf(&b, "### [%d] %s (reliability %d/100)\n\n%s\n\n", i+1, it.Source, it.ReliabilityScore, it.AnalysisSummary)
	}
	if rep.ConflictNotes != "" {
		fmt.Fprintf(&b, "## Conflicting information\n\n%s\n\n", rep.ConflictNotes)
	}
	if len(rep.GapNotes) > 0 {
		b.WriteString("## Open questions\n\n")
		for _, gapNote := range rep.GapNotes {
			fmt.Fprintf(&b, "- %s\n", gapNote)
		}
	}
	return strings.TrimSpace(b.String())
}
