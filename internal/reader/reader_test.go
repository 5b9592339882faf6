package reader_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"jinasum/internal/reader"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGatewayURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		target string
		want   string
	}{
		{"Plain join", "https://r.jina.ai", "https://example.com/a", "https://r.jina.ai/https://example.com/a"},
		{"Trailing slash on base", "https://r.jina.ai/", "https://example.com", "https://r.jina.ai/https://example.com"},
		{
			"Query is kept verbatim",
			"https://r.jina.ai",
			"https://example.com/a?b=c&d=%20e",
			"https://r.jina.ai/https://example.com/a?b=c&d=%20e",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := reader.GatewayURL(test.base, test.target); got != test.want {
				t.Errorf("GatewayURL() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxChars int
		want     string
	}{
		{"Shorter than limit", "abc", 5, "abc"},
		{"Exactly limit", "abcde", 5, "abcde"},
		{"Longer than limit", "abcdefgh", 5, "abcde"},
		{"Multi-byte characters", "总结这篇文章", 2, "总结"},
		{"Mixed characters", "a总b结c", 3, "a总b"},
		{"Non-positive limit", "abc", 0, "abc"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := reader.Truncate(test.input, test.maxChars); got != test.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", test.input, test.maxChars, got, test.want)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	var gotRequestURI, gotUserAgent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestURI = r.RequestURI
		gotUserAgent = r.Header.Get("User-Agent")

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Title: Example\n\nBody text"))
	}))
	defer srv.Close()

	c := reader.New(srv.URL, 100, discardLogger())

	text, err := c.Fetch(context.Background(), "https://example.com/a?b=c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if text != "Title: Example\n\nBody text" {
		t.Errorf("unexpected text: %q", text)
	}
	if gotRequestURI != "/https://example.com/a?b=c" {
		t.Errorf("unexpected request URI: %q", gotRequestURI)
	}
	if !strings.HasPrefix(gotUserAgent, "Mozilla/5.0") {
		t.Errorf("expected browser user agent, got %q", gotUserAgent)
	}
}

func TestFetchTruncatesToMaxChars(t *testing.T) {
	body := strings.Repeat("页", 50) + strings.Repeat("x", 50)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := reader.New(srv.URL, 60, discardLogger())

	text, err := c.Fetch(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := utf8.RuneCountInString(text); n != 60 {
		t.Fatalf("expected 60 characters, got %d", n)
	}
	if text != strings.Repeat("页", 50)+strings.Repeat("x", 10) {
		t.Fatalf("unexpected truncated text: %q", text)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	c := reader.New(srv.URL, 100, discardLogger())

	text, err := c.Fetch(context.Background(), "https://example.com")
	if err == nil {
		t.Fatalf("expected error, got text %q", text)
	}

	var statusErr *reader.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected status code: %d", statusErr.StatusCode)
	}
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	c := reader.New(srv.URL, 100, discardLogger())

	if _, err := c.Fetch(context.Background(), "https://example.com"); err == nil {
		t.Fatalf("expected error for closed server")
	}
}

func TestFetchKeepsHTMLBodyByDefault(t *testing.T) {
	const body = `<html><body><script>x()</script><p>Hello</p></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		maxChars int
		want     string
	}{
		{"Truncated", 20, "<html><body><script>"},
		{"Whole body", 1000, body},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := reader.New(srv.URL, test.maxChars, discardLogger())

			text, err := c.Fetch(context.Background(), "https://example.com")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if text != test.want {
				t.Fatalf("expected %q, got %q", test.want, text)
			}
		})
	}
}

func TestFetchExtractsTextFromHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>T</title><style>p{}</style></head>
<body>
  <h1>Heading</h1>
  <script>var x = 1;</script>
  <p>First paragraph.</p>
</body></html>`))
	}))
	defer srv.Close()

	c := reader.New(srv.URL, 100, discardLogger(), reader.WithHTMLExtraction(true))

	text, err := c.Fetch(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if text != "Heading\nFirst paragraph." {
		t.Fatalf("unexpected extracted text: %q", text)
	}
}
