// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/deep-research/pkg/types"
)

// blockedDomains are hosts whose results are dropped during
// enrichment: they serve login walls or CJK-only content that the
// downstream analysis cannot use.
var blockedDomains = []string{"zhihu.com", "baidu.com", "weibo.com"}

// Enriched wraps a provider and upgrades its hits: bare-URL results get
// their title and description scraped from the target page, a
// supplemental DuckDuckGo pass fills out thin result sets, and hits
// with CJK titles or snippets or blocklisted hosts are dropped.
type Enriched struct {
	Inner      Provider
	Supplement Provider
	Client     *http.Client
	Config     types.SearchConfig
}

// Name returns the provider identifier.
func (e *Enriched) Name() string { return "enriched(" + e.Inner.Name() + ")" }

// Search runs the inner provider, scrapes titles for bare hits,
// supplements with the secondary provider, and filters the merged set.
// Scrape failures degrade the hit to host-as-title rather than dropping
// it.
func (e *Enriched) Search(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
	if maxResults <= 0 {
		maxResults = e.Config.ResultsPerQuery
	}

	hits, err := e.Inner.Search(ctx, query, maxResults)
	if err != nil {
		hits = nil
	}

	for i := range hits {
		if hits[i].Title != "" {
			continue
		}
		title, desc := e.scrapeMeta(ctx, hits[i].URL)
		if title == "" {
			title = hostOf(hits[i].URL)
		}
		hits[i].Title = title
		if hits[i].Snippet == "" {
			hits[i].Snippet = desc
		}
	}

	if e.Supplement != nil && len(hits) < maxResults {
		extra, serr := e.Supplement.Search(ctx, query, maxResults-len(hits))
		if serr == nil {
			hits = append(hits, extra...)
		}
	}

	var kept []types.SearchHit
	for _, h := range hits {
		if blockedHost(h.URL) || containsCJK(h.Title) || containsCJK(h.Snippet) {
			continue
		}
		kept = append(kept, h)
		if len(kept) >= maxResults {
			break
		}
	}
	return Dedup(kept), nil
}

// scrapeMeta fetches a page under the enrichment timeout and pulls the
// <title> text and meta description. Failures return empty strings.
func (e *Enriched) scrapeMeta(ctx context.Context, pageURL string) (title, desc string) {
	sctx := ctx
	if e.Config.EnrichTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, e.Config.EnrichTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(sctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", ""
	}
	req.Header.Set("User-Agent", e.Config.UserAgent)

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ""
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") {
		return "", ""
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", ""
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" {
					title = strings.TrimSpace(textContent(n))
				}
			case "meta":
				if strings.EqualFold(attr(n, "name"), "description") && desc == "" {
					desc = strings.TrimSpace(attr(n, "content"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, desc
}

// blockedHost reports whether the URL's host is on (or under) the
// domain blocklist.
func blockedHost(rawURL string) bool {
	host := strings.ToLower(hostOf(rawURL))
	for _, d := range blockedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// containsCJK reports whether s holds any CJK ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4e00 && r <= 0x9fff {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
