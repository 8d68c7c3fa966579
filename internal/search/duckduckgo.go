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

// duckduckgoBase is the DuckDuckGo HTML endpoint. Declared as a var so
// tests can substitute an httptest server.
var duckduckgoBase = "https://html.duckduckgo.com/html/"

// DuckDuckGoProvider scrapes the no-JavaScript DuckDuckGo results page.
// The static markup carries stable result__a / result__snippet classes,
// so it yields full triples without an API key.
type DuckDuckGoProvider struct {
	Client *http.Client
	Config types.SearchConfig
}

// Name returns the provider identifier.
func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

// Search fetches the HTML results page and extracts result anchors and
// their sibling snippets.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
	if maxResults <= 0 {
		maxResults = p.Config.ResultsPerQuery
	}

	params := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, duckduckgoBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo search returned HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing duckduckgo results page: %w", err)
	}

	var hits []types.SearchHit
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(hits) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			href := attr(n, "href")
			target := ddgTarget(href)
			if target != "" {
				hits = append(hits, types.SearchHit{
					Title:    strings.TrimSpace(textContent(n)),
					URL:      target,
					Provider: "duckduckgo",
				})
			}
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") && len(hits) > 0 {
			if hits[len(hits)-1].Snippet == "" {
				hits[len(hits)-1].Snippet = strings.TrimSpace(textContent(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return Dedup(hits), nil
}

// ddgTarget unwraps a DuckDuckGo redirect link. Result anchors point at
// //duckduckgo.com/l/?uddg=<encoded-target>; direct links pass through.
func ddgTarget(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") {
		uddg := u.Query().Get("uddg")
		if strings.HasPrefix(uddg, "http://") || strings.HasPrefix(uddg, "https://") {
			return uddg
		}
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
