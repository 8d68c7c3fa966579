// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/deep-research/pkg/types"
)

func testSearchConfig() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			UserAgent: "deep-research-test/1.0",
		},
		ResultsPerQuery: 8,
	}
}

func TestGoogleProviderExtractsResultURLs(t *testing.T) {
	page := `<html><body>
		<a href="/search?q=nav">navigation</a>
		<a href="/url?q=https://example.com/article&sa=U">Result one</a>
		<a href="/url?q=https://other.org/page&ved=x">Result two</a>
		<a href="/url?q=/relative/path">not absolute</a>
		<a href="https://maps.google.com/place">google property</a>
		<a href="https://direct.example/post">direct</a>
		<a href="/url?q=https://example.com/article">duplicate</a>
	</body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "quantum computing" {
			t.Errorf("query = %q", got)
		}
		fmt.Fprint(w, page)
	}))
	defer ts.Close()

	oldBase := googleBase
	googleBase = ts.URL
	defer func() { googleBase = oldBase }()

	p := &GoogleProvider{Client: ts.Client(), Config: testSearchConfig()}
	hits, err := p.Search(context.Background(), "quantum computing", 8)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	wantURLs := []string{
		"https://example.com/article",
		"https://other.org/page",
		"https://direct.example/post",
	}
	if len(hits) != len(wantURLs) {
		t.Fatalf("got %d hits, want %d: %+v", len(hits), len(wantURLs), hits)
	}
	for i, want := range wantURLs {
		if hits[i].URL != want {
			t.Errorf("hit[%d].URL = %q, want %q", i, hits[i].URL, want)
		}
		if hits[i].Title != "" {
			t.Errorf("hit[%d].Title = %q, google hits are URL-only", i, hits[i].Title)
		}
		if hits[i].Provider != "google" {
			t.Errorf("hit[%d].Provider = %q", i, hits[i].Provider)
		}
	}
}

func TestGoogleProviderHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	oldBase := googleBase
	googleBase = ts.URL
	defer func() { googleBase = oldBase }()

	p := &GoogleProvider{Client: ts.Client(), Config: testSearchConfig()}
	if _, err := p.Search(context.Background(), "q", 8); err == nil {
		t.Fatal("Search() should fail on HTTP 403")
	}
}

func TestTavilyProviderWireFormat(t *testing.T) {
	var captured tavilyRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(tavilyResponse{Results: []tavilyResult{
			{Title: "Result A", URL: "https://a.example", Content: "snippet a"},
			{Title: "Result B", URL: "https://b.example", Content: "snippet b"},
			{Title: "no url"},
		}})
	}))
	defer ts.Close()

	oldBase := tavilyBase
	tavilyBase = ts.URL
	defer func() { tavilyBase = oldBase }()

	p := &TavilyProvider{Client: ts.Client(), APIKey: "tvly-test", Config: testSearchConfig()}
	hits, err := p.Search(context.Background(), "quantum computing", 5)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if captured.APIKey != "tvly-test" || captured.Query != "quantum computing" || captured.MaxResults != 5 {
		t.Errorf("request = %+v", captured)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2 (url-less results dropped): %+v", len(hits), hits)
	}
	if hits[0].Title != "Result A" || hits[0].Snippet != "snippet a" || hits[0].Provider != "tavily" {
		t.Errorf("hit[0] = %+v", hits[0])
	}
}

func TestTavilyProviderRequiresKey(t *testing.T) {
	p := &TavilyProvider{Client: http.DefaultClient, Config: testSearchConfig()}
	if _, err := p.Search(context.Background(), "q", 5); err == nil {
		t.Fatal("Search() should fail without an API key")
	}
}

func TestDuckDuckGoProviderParsesResults(t *testing.T) {
	page := `<html><body>
		<div class="result">
			<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fone">First result</a>
			<div class="result__snippet">First snippet text.</div>
		</div>
		<div class="result">
			<a class="result__a" href="https://direct.example/two">Second result</a>
			<div class="result__snippet">Second snippet.</div>
		</div>
		<a href="/settings">settings link</a>
	</body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer ts.Close()

	oldBase := duckduckgoBase
	duckduckgoBase = ts.URL
	defer func() { duckduckgoBase = oldBase }()

	p := &DuckDuckGoProvider{Client: ts.Client(), Config: testSearchConfig()}
	hits, err := p.Search(context.Background(), "quantum computing", 8)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2: %+v", len(hits), hits)
	}
	if hits[0].URL != "https://example.com/one" || hits[0].Title != "First result" {
		t.Errorf("hit[0] = %+v, redirect link should be unwrapped", hits[0])
	}
	if hits[0].Snippet != "First snippet text." {
		t.Errorf("hit[0].Snippet = %q", hits[0].Snippet)
	}
	if hits[1].URL != "https://direct.example/two" {
		t.Errorf("hit[1] = %+v", hits[1])
	}
}
