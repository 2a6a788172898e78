// Package antikvarium implements the metadata resolution pipeline for the
// antikvarium.hu bookseller site: candidate discovery, concurrent detail
// fetching, field extraction and the run-scoped resolution cache.
package antikvarium

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/otapi/antikvarium/internal/ratelimit"
)

const (
	defaultBaseURL   = "https://www.antikvarium.hu"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "antikvarium-metadata/2.0"

	// The site tolerates a handful of requests per second; stay polite.
	defaultRatePerSecond = 4
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is an HTTP client for antikvarium.hu pages. It owns the base URL,
// the courtesy rate limit and the charset-aware HTML parsing; the resolver
// and detail workers run on top of it.
type Client struct {
	baseURL     string
	userAgent   string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the site root, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h HTTPDoer) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets the per-request network timeout. Ignored when a custom
// HTTP client is also supplied.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if hc, ok := c.httpClient.(*http.Client); ok && d > 0 {
			hc.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a new antikvarium.hu client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:     defaultBaseURL,
		userAgent:   defaultUserAgent,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		rateLimiter: ratelimit.New("antikvarium.hu", defaultRatePerSecond),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// BaseURL returns the configured site root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BookURL builds the detail-page URL for a site identifier.
func (c *Client) BookURL(antikID string) string {
	return c.baseURL + "/konyv/" + antikID
}

// absoluteURL resolves a listing href or image src against the site root.
// The site emits these relative, without a leading slash.
func (c *Client) absoluteURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return c.baseURL + "/" + strings.TrimLeft(ref, "/")
}

// getDocument fetches url and parses the response body into a goquery
// document, converting from the page's declared charset. A 404 maps to
// ErrNotFound so callers can tell a missing page from a transport fault.
func (c *Client) getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("antikvarium.hu request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	// The site does not reliably serve UTF-8; honor the declared charset.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

// GetImage fetches raw image bytes, used for cover downloads.
func (c *Client) GetImage(ctx context.Context, url string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cover download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover data: %w", err)
	}
	return data, nil
}
