// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// googleBase is the Google search endpoint. Declared as a var so tests
// can substitute an httptest server.
var googleBase = "https://www.google.com/search"

// GoogleProvider scrapes the Google results page. It yields URL-only
// hits: Google's markup hides titles and snippets behind obfuscated
// class names, so only the target links are extracted reliably. Wrap
// with Enriched to recover titles.
type GoogleProvider struct {
	Client *http.Client
	Config types.SearchConfig
}

// Name returns the provider identifier.
func (p *GoogleProvider) Name() string { return "google" }

// Search fetches a results page and extracts outbound result URLs.
func (p *GoogleProvider) Search(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
	if maxResults <= 0 {
		maxResults = p.Config.ResultsPerQuery
	}

	params := url.Values{
		"q":   {query},
		"num": {fmt.Sprintf("%d", maxResults)},
		"hl":  {"en"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("google search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google search returned HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing google results page: %w", err)
	}

	var hits []types.SearchHit
	for _, href := range collectAnchors(doc) {
		target := googleTarget(href)
		if target == "" {
			continue
		}
		hits = append(hits, types.SearchHit{URL: target, Provider: "google"})
		if len(hits) >= maxResults {
			break
		}
	}
	return Dedup(hits), nil
}

// googleTarget unwraps a result anchor. Google routes outbound links
// through /url?q=<target>; direct http(s) anchors pointing off-site are
// accepted as-is, everything else (navigation, cached pages, Google's
// own properties) is dropped.
func googleTarget(href string) string {
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		q := u.Query().Get("q")
		if strings.HasPrefix(q, "http://") || strings.HasPrefix(q, "https://") {
			return q
		}
		return ""
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || strings.Contains(host, "google.") {
		return ""
	}
	return href
}

// collectAnchors walks the parse tree depth-first and returns every
// anchor href in document order.
func collectAnchors(n *html.Node) []string {
	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" && a.Val != "" {
					hrefs = append(hrefs, a.Val)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return hrefs
}
