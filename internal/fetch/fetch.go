// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads web pages and reduces them to analyzable
// plain text. Boilerplate elements (navigation, scripts, chrome) are
// stripped and the result is truncated to the analysis window.
//
// docs/ARCHITECTURE § Fetching.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// skipElements are HTML elements whose text never carries article
// content.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"form":     true,
	"iframe":   true,
	"svg":      true,
}

// Fetcher downloads and extracts page text under the configured size
// limits.
type Fetcher struct {
	Client *http.Client
	Config types.FetchConfig
}

// New returns a Fetcher using the given client and limits.
func New(client *http.Client, cfg types.FetchConfig) *Fetcher {
	return &Fetcher{Client: client, Config: cfg}
}

// Fetch downloads pageURL and returns its visible text, truncated to
// the configured character budget. Non-HTML responses and HTTP errors
// are reported as errors; the caller decides whether to fall back to
// the search snippet.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", pageURL, resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "text/plain") {
		return "", fmt.Errorf("fetching %s: unsupported content type %q", pageURL, ct)
	}

	body := io.Reader(resp.Body)
	if f.Config.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.Config.MaxBodyBytes)
	}

	if strings.Contains(ct, "text/plain") {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", pageURL, err)
		}
		return f.truncate(collapseWhitespace(string(data))), nil
	}

	doc, err := html.Parse(body)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", pageURL, err)
	}

	text := collapseWhitespace(visibleText(doc))
	if text == "" {
		return "", fmt.Errorf("fetching %s: no extractable text", pageURL)
	}
	return f.truncate(text), nil
}

// truncate cuts text to the configured rune budget.
func (f *Fetcher) truncate(text string) string {
	max := f.Config.MaxChars
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// visibleText walks the parse tree and concatenates text nodes,
// skipping boilerplate elements. Block elements contribute a space so
// adjacent blocks do not run together.
func visibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// collapseWhitespace folds runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
