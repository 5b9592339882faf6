package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	RequestTimeout = 60 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

// StatusError is returned when the gateway answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reader gateway returned status %d for %s", e.StatusCode, e.URL)
}

// Client fetches readable page text through a reader gateway such as
// https://r.jina.ai.
type Client struct {
	base        string
	maxChars    int
	extractHTML bool
	httpClient  *http.Client
	log         *slog.Logger
}

type Option func(*Client)

// WithHTMLExtraction makes Fetch reduce text/html bodies to their visible
// text before truncation. By default the body is passed through as is.
func WithHTMLExtraction(enabled bool) Option {
	return func(c *Client) {
		c.extractHTML = enabled
	}
}

func New(base string, maxChars int, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		base:       base,
		maxChars:   maxChars,
		httpClient: &http.Client{Timeout: RequestTimeout},
		log:        log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GatewayURL joins base and target verbatim. The target is not re-encoded.
func GatewayURL(base, target string) string {
	return strings.TrimRight(base, "/") + "/" + target
}

// Fetch returns the gateway response body for targetURL truncated to the
// configured number of characters.
func (c *Client) Fetch(ctx context.Context, targetURL string) (string, error) {
	gatewayURL := GatewayURL(c.base, targetURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gatewayURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", closeErr,
				"gatewayURL", gatewayURL)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{StatusCode: resp.StatusCode, URL: gatewayURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := string(body)
	if c.extractHTML && isHTML(resp.Header.Get("Content-Type")) {
		text, err = extractText(body)
		if err != nil {
			return "", fmt.Errorf("extract text: %w", err)
		}
	}

	truncated := Truncate(text, c.maxChars)

	c.log.DebugContext(ctx, "Page text is fetched",
		"gatewayURL", gatewayURL,
		"contentType", resp.Header.Get("Content-Type"),
		"bodyBytes", len(body),
		"textChars", utf8.RuneCountInString(truncated))

	return truncated, nil
}

// Truncate cuts s to at most maxChars characters.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}

	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}

	return s
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func extractText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()

	lines := strings.Split(doc.Find("body").Text(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n"), nil
}
