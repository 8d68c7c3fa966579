// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// tavilyBase is the Tavily search endpoint. Declared as a var so tests
// can substitute an httptest server.
var tavilyBase = "https://api.tavily.com/search"

// TavilyProvider queries the Tavily search API. Unlike the scraping
// providers it returns complete title/URL/snippet triples, which makes
// it the fallback of choice when Google yields nothing usable.
type TavilyProvider struct {
	Client *http.Client
	APIKey string
	Config types.SearchConfig
}

// Name returns the provider identifier.
func (p *TavilyProvider) Name() string { return "tavily" }

// Search posts the query to the Tavily API.
func (p *TavilyProvider) Search(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("tavily API key not configured")
	}
	if maxResults <= 0 {
		maxResults = p.Config.ResultsPerQuery
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:     p.APIKey,
		Query:      query,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("tavily API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily API returned HTTP %d", resp.StatusCode)
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("parsing tavily response: %w", err)
	}

	var hits []types.SearchHit
	for _, r := range tr.Results {
		if r.URL == "" {
			continue
		}
		hits = append(hits, types.SearchHit{
			Title:    r.Title,
			URL:      r.URL,
			Snippet:  r.Content,
			Provider: "tavily",
		})
		if len(hits) >= maxResults {
			break
		}
	}
	return Dedup(hits), nil
}

// Tavily API JSON structures.
type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
