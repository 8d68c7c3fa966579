// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze inspects the scored evidence set for disagreements
// between sources and for subtopics the collected research fails to
// cover. Its findings feed the synthesis prompt so the report can flag
// them.
//
// docs/ARCHITECTURE § Analysis.
package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/deep-research/internal/model"
	"github.com/pdiddy/deep-research/pkg/types"
)

// analysisWindow bounds how many top sources the conflict and gap
// checks cover. Five summaries keep the prompts focused and cheap.
const analysisWindow = 5

// maxGaps caps the gap notes carried into the report.
const maxGaps = 3

// summaryExcerptLen bounds one finding line in the gap prompt.
const summaryExcerptLen = 100

// gapMarkers are phrases that mark a line of the model's gap analysis
// as naming genuinely missing information. English and Turkish forms,
// matched case-insensitively.
var gapMarkers = []string{
	"missing",
	"not mentioned",
	"no information",
	"unclear",
	"gap",
	"eksik",
	"belirtilmemiş",
	"bilgi yok",
}

// Personas for the two analysis calls, sent as the system message so
// the model holds its role on either backend.
const (
	factCheckSystem = "You are a fact-checking expert. You compare information from different sources and identify contradictions."
	reviewerSystem  = "You are a research quality reviewer. You identify what a body of research fails to cover."
)

// Gateway is the model surface the analyzer needs.
type Gateway interface {
	Complete(ctx context.Context, hint types.BackendHint, req model.Request) string
}

// Analyzer finds conflicts and gaps in the evidence set.
type Analyzer struct {
	Gateway Gateway
}

// DetectConflicts asks the model to compare the top sources and
// describe any factual disagreements, flag bias, and say which source
// is more likely correct. The model's description is returned verbatim
// so synthesis can quote it; no conflicts or a failed model yields the
// empty string.
func (a *Analyzer) DetectConflicts(ctx context.Context, hint types.BackendHint, topic string, items []types.EvidenceItem) string {
	if len(items) < 2 {
		return ""
	}
	top := items
	if len(top) > analysisWindow {
		top = top[:analysisWindow]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Compare these source summaries for a report on: %s\n\n", topic)
	for i, it := range top {
		fmt.Fprintf(&b, "Source %d: %s (reliability %d/100)\n%s\n\n", i+1, it.Source, it.ReliabilityScore, it.AnalysisSummary)
	}
	b.WriteString("Do the sources contradict each other on any factual point? ")
	b.WriteString("If yes, describe each contradiction in one or two sentences, naming the sources, ")
	b.WriteString("note any political or ideological bias you detect, ")
	b.WriteString("and say which source is more likely correct given its reliability. ")
	b.WriteString("If there are no contradictions, answer exactly: none.")

	resp := a.Gateway.Complete(ctx, hint, model.Request{
		Prompt:    b.String(),
		System:    factCheckSystem,
		MaxTokens: 500,
	})
	if model.IsFailure(resp) {
		return ""
	}
	resp = strings.TrimSpace(resp)
	if strings.EqualFold(resp, "none") || strings.EqualFold(resp, "none.") {
		return ""
	}
	return resp
}

// FindGaps asks the model what the collected research fails to cover
// and returns up to three gap lines from its answer. The prompt shows
// the top sources' summaries; the reply is filtered to lines carrying
// a missing-information marker so filler prose does not become a gap
// note. A failed model yields no gaps.
func (a *Analyzer) FindGaps(ctx context.Context, hint types.BackendHint, topic string, items []types.EvidenceItem) []string {
	if len(items) == 0 {
		return nil
	}
	top := items
	if len(top) > analysisWindow {
		top = top[:analysisWindow]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Review the research collected so far on: %s\n\nCollected findings:\n", topic)
	for _, it := range top {
		fmt.Fprintf(&b, "- %s: %s\n", it.Source, excerpt(it.AnalysisSummary))
	}
	b.WriteString("\nWhat important subtopics, perspectives, or recent developments are missing from these findings? ")
	b.WriteString("List only the two or three most important gaps, one per line, each stating what information is missing.")

	resp := a.Gateway.Complete(ctx, hint, model.Request{
		Prompt:    b.String(),
		System:    reviewerSystem,
		MaxTokens: 500,
	})
	if model.IsFailure(resp) {
		return nil
	}

	var gaps []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "0123456789.)-*• \t"))
		if line == "" || !hasGapMarker(line) {
			continue
		}
		gaps = append(gaps, line)
		if len(gaps) >= maxGaps {
			break
		}
	}
	return gaps
}

func hasGapMarker(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range gapMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// excerpt bounds a summary for inclusion in the gap prompt.
func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= summaryExcerptLen {
		return s
	}
	return string(r[:summaryExcerptLen]) + "..."
}
