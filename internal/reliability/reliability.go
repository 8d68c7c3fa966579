// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reliability scores evidence sources on a 0-100 scale. The
// model grades each source against a recency policy and a neutrality
// check; a tolerant parser recovers the score and reason from
// free-form output, defaulting to a neutral 50 when the model's answer
// is unusable.
//
// docs/ARCHITECTURE § Reliability.
package reliability

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/deep-research/internal/model"
	"github.com/pdiddy/deep-research/pkg/types"
)

// neutralScore is assigned when the model fails or its output carries
// no parseable score.
const neutralScore = 50

// evaluatorSystem keeps the model in role for the scoring calls.
const evaluatorSystem = "You are a source reliability expert. You judge web sources objectively."

// Gateway is the model surface the evaluator needs.
type Gateway interface {
	Complete(ctx context.Context, hint types.BackendHint, req model.Request) string
}

// Evaluator scores evidence items.
type Evaluator struct {
	Gateway Gateway
}

// EvaluateAll scores every item in place. Items keep their slice order;
// filtering and ranking happen separately in FilterAndSort. Only
// context cancellation aborts the pass.
func (e *Evaluator) EvaluateAll(ctx context.Context, hint types.BackendHint, topic string, items []types.EvidenceItem) error {
	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := e.Gateway.Complete(ctx, hint, model.Request{
			Prompt:    evaluationPrompt(topic, items[i]),
			System:    evaluatorSystem,
			MaxTokens: 250,
		})
		score, reason := ParseEvaluation(raw)
		items[i].ReliabilityScore = score
		items[i].ReliabilityReason = reason
	}
	return nil
}

// evaluationPrompt asks for a structured, line-labeled verdict. The
// recency policy gives the model explicit staleness windows per topic
// category instead of leaving "recent" to interpretation.
func evaluationPrompt(topic string, item types.EvidenceItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate the reliability of this source for a research report on: %s\n\n", topic)
	fmt.Fprintf(&b, "Source: %s\nURL: %s\nContent:\n%s\n\n", item.Source, item.URL, item.ExtractedText)
	b.WriteString("Judge the source on authority, evidence quality, neutrality, and freshness.\n")
	b.WriteString("Freshness windows by topic category: fast-moving technology 6 months; ")
	b.WriteString("mainstream technology 2 years; slow-moving fields 5 years; ")
	b.WriteString("very slow fields 10 years; science 5 years; general topics 2 years.\n\n")
	b.WriteString("Answer with exactly these labeled lines:\n")
	b.WriteString("Reliability: <score from 0 to 100>\n")
	b.WriteString("Date: <publication date or unknown>\n")
	b.WriteString("Category: <topic category>\n")
	b.WriteString("Neutrality: <neutral, promotional, or biased>\n")
	b.WriteString("Reason: <one sentence>")
	return b.String()
}

// ParseEvaluation recovers the score and reason from model output. It
// scans for the labeled lines case-insensitively, clamps the score to
// [0,100], and falls back to the neutral score with an "unknown"
// reason when the output is a failure diagnostic or carries no score.
func ParseEvaluation(raw string) (int, string) {
	if model.IsFailure(raw) {
		return neutralScore, "unknown: model unavailable"
	}

	score := neutralScore
	scoreFound := false
	reason := "unknown"

	for _, line := range strings.Split(raw, "\n") {
		label, value, ok := splitLabel(line)
		if !ok {
			continue
		}
		switch label {
		case "reliability", "score":
			if n, ok := parseScore(value); ok {
				score = n
				scoreFound = true
			}
		case "reason":
			if value != "" {
				reason = value
			}
		}
	}

	if !scoreFound {
		// Last resort: a bare leading number.
		if n, ok := parseScore(strings.TrimSpace(raw)); ok {
			score = n
		}
	}
	return score, reason
}

// splitLabel parses a "Label: value" line.
func splitLabel(line string) (label, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	label = strings.ToLower(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	return label, value, true
}

// parseScore reads the leading integer of value and clamps it to
// [0,100]. Trailing text ("85/100", "85 out of 100") is tolerated.
func parseScore(value string) (int, bool) {
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(value[:end])
	if err != nil {
		return 0, false
	}
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return n, true
}

// FilterAndSort drops items scoring below floor and orders the rest by
// descending score. The sort is stable: equally scored items keep
// their collection order, so reruns produce identical rankings.
func FilterAndSort(items []types.EvidenceItem, floor int) []types.EvidenceItem {
	var kept []types.EvidenceItem
	for _, it := range items {
		if it.ReliabilityScore >= floor {
			kept = append(kept, it)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].ReliabilityScore > kept[j].ReliabilityScore
	})
	return kept
}
