// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan turns a research topic into a bounded set of search
// queries. The model proposes candidate queries covering distinct
// angles; a tolerant parser cleans the output, and a synthetic
// fallback keeps the pipeline moving when the model is unavailable.
//
// docs/ARCHITECTURE § Planning.
package plan

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/lang"
	"github.com/pdiddy/deep-research/internal/model"
	"github.com/pdiddy/deep-research/pkg/types"
)

// minQueryLen filters noise lines: a usable query needs more than five
// characters.
const minQueryLen = 5

// secondaryQueryCount bounds the English supplement requested for
// non-English topics.
const secondaryQueryCount = 2

// plannerSystem keeps the model in role for both query prompts.
const plannerSystem = "You are a research planner. You write effective web search queries for a given topic."

// enumeratorRE strips leading list markers such as "1.", "2)", "3 -".
var enumeratorRE = regexp.MustCompile(`^\d+[\.\-\)\s]*`)

// Gateway is the model surface the planner needs. *model.Gateway
// satisfies it; tests supply fakes.
type Gateway interface {
	Complete(ctx context.Context, hint types.BackendHint, req model.Request) string
}

// Planner generates search queries for a topic.
type Planner struct {
	Gateway Gateway
	Config  types.PipelineConfig
}

// Plan asks the model for search queries and returns at most
// MaxQueries cleaned, deduplicated queries. The first prompt requests
// queries in the topic's own language; for non-English topics a second
// prompt requests an English supplement so international sources
// surface, concatenated after the primary-language queries. Plan never
// fails: when the model is unreachable or its output yields nothing
// usable, synthetic fallback queries derived from the topic are
// returned instead.
func (p *Planner) Plan(ctx context.Context, hint types.BackendHint, topic string, language lang.Language) []string {
	max := p.Config.MaxQueries
	if max <= 0 {
		max = 5
	}

	primary := ParseQueries(p.Gateway.Complete(ctx, hint, model.Request{
		Prompt:    primaryPrompt(topic, language, max),
		System:    plannerSystem,
		MaxTokens: 300,
	}), max)

	var secondary []string
	if language != lang.English {
		secondary = ParseQueries(p.Gateway.Complete(ctx, hint, model.Request{
			Prompt:    secondaryPrompt(topic),
			System:    plannerSystem,
			MaxTokens: 150,
		}), secondaryQueryCount)
	}

	queries := mergeQueries(primary, secondary, max)
	if len(queries) == 0 {
		return FallbackQueries(topic, max)
	}
	return queries
}

// primaryPrompt requests queries in the topic's own language.
func primaryPrompt(topic string, language lang.Language, max int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d distinct web search queries to research the topic below.\n", max)
	fmt.Fprintf(&b, "Topic: %s\n\n", topic)
	fmt.Fprintf(&b, "Cover different angles: core definition, recent developments, global perspectives, technical details.\n")
	fmt.Fprintf(&b, "Write the queries in %s.\n", language.Name())
	fmt.Fprintf(&b, "Output one query per line with no numbering and no commentary.")
	return b.String()
}

// secondaryPrompt requests the English supplement for non-English
// topics so international sources are found.
func secondaryPrompt(topic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d English web search queries to research the topic below so international sources are found.\n", secondaryQueryCount)
	fmt.Fprintf(&b, "Topic: %s\n\n", topic)
	fmt.Fprintf(&b, "Output one query per line with no numbering and no commentary.")
	return b.String()
}

// mergeQueries concatenates primary-language queries before the
// English supplement, deduplicates case-insensitively keeping the
// first occurrence, and caps the result at max.
func mergeQueries(primary, secondary []string, max int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range append(append([]string(nil), primary...), secondary...) {
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
		if len(out) >= max {
			break
		}
	}
	return out
}

// ParseQueries cleans raw model output into a query list. It tolerates
// numbering, bullets, and surrounding quotes; drops lines at or below
// the minimum length; deduplicates case-insensitively keeping the
// first occurrence; and caps the result at max. Model failure text
// yields nil.
func ParseQueries(raw string, max int) []string {
	if model.IsFailure(raw) {
		return nil
	}

	seen := make(map[string]bool)
	var queries []string
	for _, line := range strings.Split(raw, "\n") {
		q := cleanLine(line)
		if len(q) <= minQueryLen {
			continue
		}
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, q)
		if len(queries) >= max {
			break
		}
	}
	return queries
}

// cleanLine strips list markers, bullets, and quotes from one output
// line.
func cleanLine(line string) string {
	q := strings.TrimSpace(line)
	q = enumeratorRE.ReplaceAllString(q, "")
	q = strings.TrimLeft(q, "-*• \t")
	q = strings.Trim(q, `"'`)
	return strings.TrimSpace(q)
}

// FallbackQueries derives queries from the topic alone: the topic
// itself, the topic scoped to the current year, and a "latest" variant.
func FallbackQueries(topic string, max int) []string {
	year := time.Now().Year()
	queries := []string{
		topic,
		fmt.Sprintf("%s %d", topic, year),
		fmt.Sprintf("latest %s", topic),
	}
	if max > 0 && len(queries) > max {
		queries = queries[:max]
	}
	return queries
}
