// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web search engines and returns unified,
// deduplicated hits. Providers implement a common interface per the
// Strategy pattern; the Tiered combinator chains a primary provider
// with a fallback, and Enriched upgrades bare-URL hits with scraped
// titles and supplemental results.
//
// docs/ARCHITECTURE § Search.
package search

import (
	"context"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Provider searches a single engine. Each provider (Google, Tavily,
// DuckDuckGo) implements this interface.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error)
}

// Tiered tries Primary first and falls back to Fallback when the
// primary errors or returns nothing. A nil Fallback makes Tiered a
// passthrough for Primary.
type Tiered struct {
	Primary  Provider
	Fallback Provider
}

// Name returns the combinator identifier.
func (t *Tiered) Name() string { return "tiered" }

// Search runs the primary provider and, on error or an empty result
// set, the fallback. The fallback's error is returned only when the
// primary also produced nothing.
func (t *Tiered) Search(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
	hits, err := t.Primary.Search(ctx, query, maxResults)
	if err == nil && len(hits) > 0 {
		return hits, nil
	}
	if t.Fallback == nil {
		return hits, err
	}
	return t.Fallback.Search(ctx, query, maxResults)
}

// Dedup removes hits whose URL was already seen, preserving first-seen
// order. URL comparison is exact: no normalization, no case folding.
func Dedup(hits []types.SearchHit) []types.SearchHit {
	seen := make(map[string]bool, len(hits))
	var out []types.SearchHit
	for _, h := range hits {
		if h.URL == "" || seen[h.URL] {
			continue
		}
		seen[h.URL] = true
		out = append(out, h)
	}
	return out
}
