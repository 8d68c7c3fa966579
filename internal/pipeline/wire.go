// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/evidence"
	"github.com/pdiddy/deep-research/internal/fetch"
	"github.com/pdiddy/deep-research/internal/model"
	"github.com/pdiddy/deep-research/internal/plan"
	"github.com/pdiddy/deep-research/internal/reliability"
	"github.com/pdiddy/deep-research/internal/report"
	"github.com/pdiddy/deep-research/internal/search"
	"github.com/pdiddy/deep-research/pkg/types"
)

// New assembles a production pipeline from configuration. The search
// stack is the enriched two-tier arrangement: Google scraping first,
// Tavily as fallback when a key is configured, DuckDuckGo to fill thin
// result sets and recover titles.
func New(cfg types.Config, modelName string, recorder Recorder, logger *zap.Logger) *Pipeline {
	gateway := model.NewGateway(cfg.Model, modelName)

	searchClient := &http.Client{Timeout: cfg.Search.Timeout}
	var primary search.Provider = &search.GoogleProvider{Client: searchClient, Config: cfg.Search}
	var fallback search.Provider
	if cfg.Search.TavilyAPIKey != "" {
		fallback = &search.TavilyProvider{Client: searchClient, APIKey: cfg.Search.TavilyAPIKey, Config: cfg.Search}
	}
	provider := &search.Enriched{
		Inner:      &search.Tiered{Primary: primary, Fallback: fallback},
		Supplement: &search.DuckDuckGoProvider{Client: searchClient, Config: cfg.Search},
		Client:     searchClient,
		Config:     cfg.Search,
	}

	fetcher := fetch.New(&http.Client{Timeout: cfg.Fetch.Timeout}, cfg.Fetch)

	return &Pipeline{
		Planner: &plan.Planner{Gateway: gateway, Config: cfg.Pipeline},
		Collector: &evidence.Collector{
			Gateway:         gateway,
			Provider:        provider,
			Fetcher:         fetcher,
			Config:          cfg.Pipeline,
			ResultsPerQuery: cfg.Search.ResultsPerQuery,
		},
		Evaluator:   &reliability.Evaluator{Gateway: gateway},
		Analyst:     &analyze.Analyzer{Gateway: gateway},
		Synthesizer: &report.Synthesizer{Gateway: gateway, Config: cfg.Report},
		Recorder:    recorder,
		Config:      cfg,
		Logger:      logger,
	}
}
