// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence runs the gathering stage: search hits are collected
// per query, filtered for relevance, fetched, and analyzed into
// evidence items ready for reliability scoring.
//
// docs/ARCHITECTURE § Evidence.
package evidence

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/model"
	"github.com/pdiddy/deep-research/internal/search"
	"github.com/pdiddy/deep-research/pkg/types"
)

// analystSystem keeps the model in role for the relevance, summary,
// and extraction calls.
const analystSystem = "You are a research analyst. You judge and summarize web sources using only their content."

// Gateway is the model surface the collector needs.
type Gateway interface {
	Complete(ctx context.Context, hint types.BackendHint, req model.Request) string
}

// Fetcher downloads a page and returns its visible text.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Collector gathers and analyzes evidence for a topic. Candidates are
// processed sequentially: each model call depends on the previous
// stage's output, and the search engines throttle parallel clients
// anyway.
type Collector struct {
	Gateway         Gateway
	Provider        search.Provider
	Fetcher         Fetcher
	Config          types.PipelineConfig
	ResultsPerQuery int
}

// Collect runs every query against the search provider, deduplicates
// the hits, and deep-processes up to MaxCandidates of them into
// evidence items. Per-candidate failures degrade or skip the candidate
// rather than aborting the run; only context cancellation stops
// collection early.
func (c *Collector) Collect(ctx context.Context, hint types.BackendHint, topic string, queries []string, w io.Writer) ([]types.EvidenceItem, error) {
	var all []types.SearchHit
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 && c.Config.QueryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.Config.QueryDelay):
			}
		}

		hits, err := c.Provider.Search(ctx, q, c.ResultsPerQuery)
		if err != nil {
			fmt.Fprintf(w, "warning: search %q failed: %v\n", q, err)
			continue
		}
		fmt.Fprintf(w, "query %q: %d hits\n", q, len(hits))
		all = append(all, hits...)
	}

	candidates := search.Dedup(all)
	if max := c.Config.MaxCandidates; max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}

	var items []types.EvidenceItem
	for _, hit := range candidates {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		if c.Config.RelevanceFilter && !c.relevant(ctx, hint, topic, hit) {
			fmt.Fprintf(w, "skipped %s: not relevant\n", hit.URL)
			continue
		}

		item, ok := c.process(ctx, hint, topic, hit, w)
		if !ok {
			continue
		}
		items = append(items, item)
		fmt.Fprintf(w, "collected %s\n", hit.URL)
	}

	return items, nil
}

// process turns one search hit into an evidence item. Fetch failures
// fall back to the search snippet; a candidate with no text or a failed
// analysis is dropped.
func (c *Collector) process(ctx context.Context, hint types.BackendHint, topic string, hit types.SearchHit, w io.Writer) (types.EvidenceItem, bool) {
	text, err := c.Fetcher.Fetch(ctx, hit.URL)
	if err != nil {
		fmt.Fprintf(w, "warning: fetch %s failed, using snippet: %v\n", hit.URL, err)
		text = hit.Snippet
	}
	if strings.TrimSpace(text) == "" {
		return types.EvidenceItem{}, false
	}

	summary := c.Gateway.Complete(ctx, hint, model.Request{
		Prompt:    analysisPrompt(topic, hit.Title, text),
		System:    analystSystem,
		MaxTokens: 400,
	})
	if model.IsFailure(summary) || strings.TrimSpace(summary) == "" {
		fmt.Fprintf(w, "warning: analysis of %s failed\n", hit.URL)
		return types.EvidenceItem{}, false
	}

	// Specific data is best-effort: a failed extraction leaves the
	// field empty.
	specific := c.Gateway.Complete(ctx, hint, model.Request{
		Prompt:    specificDataPrompt(topic, text),
		System:    analystSystem,
		MaxTokens: 300,
	})
	if model.IsFailure(specific) {
		specific = ""
	}

	source := hit.Title
	if source == "" {
		source = hit.URL
	}

	return types.EvidenceItem{
		Source:          source,
		URL:             hit.URL,
		ExtractedText:   text,
		AnalysisSummary: strings.TrimSpace(summary),
		SpecificData:    strings.TrimSpace(specific),
		Provider:        hit.Provider,
	}, true
}

// relevant asks the model for a yes/no relevance judgment. Model
// failure defaults to relevant so an unreachable backend never
// silently empties the evidence set.
func (c *Collector) relevant(ctx context.Context, hint types.BackendHint, topic string, hit types.SearchHit) bool {
	resp := c.Gateway.Complete(ctx, hint, model.Request{
		Prompt:    relevancePrompt(topic, hit),
		System:    analystSystem,
		MaxTokens: 10,
	})
	if model.IsFailure(resp) {
		return true
	}
	answer := strings.ToLower(strings.TrimSpace(resp))
	return !strings.HasPrefix(answer, "no")
}

func relevancePrompt(topic string, hit types.SearchHit) string {
	return fmt.Sprintf(
		"Is the following search result relevant to the research topic?\n\nTopic: %s\nTitle: %s\nSnippet: %s\n\nAnswer with a single word: yes or no.",
		topic, hit.Title, hit.Snippet)
}

func analysisPrompt(topic, title, text string) string {
	return fmt.Sprintf(
		"You are analyzing a source for a research report on: %s\n\nSource title: %s\nSource content:\n%s\n\nSummarize in a few sentences what this source contributes to the topic. Only use information present in the content.",
		topic, title, text)
}

func specificDataPrompt(topic, text string) string {
	return fmt.Sprintf(
		"Extract the concrete facts, figures, dates, and named entities from the content below that bear on the topic: %s\n\nContent:\n%s\n\nList each fact on its own line. If there are none, output nothing.",
		topic, text)
}
