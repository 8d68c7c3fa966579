// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/deep-research/pkg/types"
)

func testConfig() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig:   types.HTTPConfig{UserAgent: "deep-research-test/1.0"},
		MaxChars:     4000,
		MaxBodyBytes: 10 << 20,
	}
}

func serve(t *testing.T, contentType, body string) (*Fetcher, string) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return New(ts.Client(), testConfig()), ts.URL
}

func TestFetchStripsBoilerplate(t *testing.T) {
	f, url := serve(t, "text/html; charset=utf-8", `<html>
		<head><title>Page</title><script>var x = 1;</script><style>p{}</style></head>
		<body>
			<nav>Home About Contact</nav>
			<header>Site header</header>
			<p>Quantum computers use qubits.</p>
			<p>They exploit superposition.</p>
			<footer>Copyright notice</footer>
		</body></html>`)

	got, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	for _, want := range []string{"Quantum computers use qubits.", "They exploit superposition."} {
		if !strings.Contains(got, want) {
			t.Errorf("text %q missing %q", got, want)
		}
	}
	for _, banned := range []string{"var x", "Home About", "Site header", "Copyright notice"} {
		if strings.Contains(got, banned) {
			t.Errorf("text %q should not contain boilerplate %q", got, banned)
		}
	}
}

func TestFetchTruncates(t *testing.T) {
	long := strings.Repeat("word ", 2000)
	f, url := serve(t, "text/html", "<html><body><p>"+long+"</p></body></html>")

	got, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if n := len([]rune(got)); n > 4000 {
		t.Errorf("text length = %d runes, want <= 4000", n)
	}
}

func TestFetchPlainText(t *testing.T) {
	f, url := serve(t, "text/plain", "just   some\n\nplain   text")

	got, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if got != "just some plain text" {
		t.Errorf("Fetch() = %q", got)
	}
}

func TestFetchRejectsNonText(t *testing.T) {
	f, url := serve(t, "application/pdf", "%PDF-1.4 binary stuff")

	if _, err := f.Fetch(context.Background(), url); err == nil {
		t.Fatal("Fetch() should reject non-text content types")
	}
}

func TestFetchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := New(ts.Client(), testConfig())
	if _, err := f.Fetch(context.Background(), ts.URL); err == nil {
		t.Fatal("Fetch() should fail on HTTP 404")
	}
}

func TestFetchEmptyPage(t *testing.T) {
	f, url := serve(t, "text/html", "<html><body><script>only()</script></body></html>")

	if _, err := f.Fetch(context.Background(), url); err == nil {
		t.Fatal("Fetch() should fail when no visible text remains")
	}
}

func TestFetchBodyCap(t *testing.T) {
	// A body larger than the cap still parses: the reader is limited,
	// not rejected.
	cfg := testConfig()
	cfg.MaxBodyBytes = 1024
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><p>"+strings.Repeat("x", 5000)+"</p></body></html>")
	}))
	defer ts.Close()

	f := New(ts.Client(), cfg)
	got, err := f.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(got) > 1024 {
		t.Errorf("text length = %d, body cap not applied", len(got))
	}
}
