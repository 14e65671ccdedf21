package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/goanswer/internal/budget"
	"github.com/hyperifyio/goanswer/internal/cache"
	"github.com/hyperifyio/goanswer/internal/extract"
)

// Page is the readable text of one fetched URL.
type Page struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Client retrieves pages and extracts readable text. The disk cache is
// consulted before any network call; on a miss at most one fetch per URL is
// in flight at a time.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Timeout bounds each individual fetch. The caller's context carries the
	// request's global budget on top of this.
	Timeout time.Duration
	Cache   *cache.Store
	// TTL for cached page bodies.
	TTL time.Duration
	// MaxBodyBytes caps the response body read. Zero means 2 MiB.
	MaxBodyBytes int64
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
}

// Fetch returns the extracted text of url, from cache when possible. It
// fails fast once the context's deadline (the request budget) has passed.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", rawURL, budget.ErrExhausted)
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= 0 {
		return Page{}, fmt.Errorf("fetch %s: %w", rawURL, budget.ErrExhausted)
	}
	var page Page
	err := c.Cache.GetOrCompute(ctx, cache.NamespacePage, rawURL, c.TTL, &page, func(ctx context.Context) (any, error) {
		return c.fetchOnce(ctx, rawURL)
	})
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) (Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Page{}, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return Page{}, fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !isHTMLContentType(ct) {
		return Page{}, fmt.Errorf("unsupported content type: %s", ct)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = 2 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}
	doc := extract.FromHTML(body)
	if strings.TrimSpace(doc.Text) == "" {
		return Page{}, fmt.Errorf("no extractable text in %s", rawURL)
	}
	return Page{URL: rawURL, Title: doc.Title, Text: doc.Text, FetchedAt: time.Now().UTC()}, nil
}

func (c *Client) httpClient() *http.Client {
	hops := c.RedirectMaxHops
	if hops <= 0 {
		hops = 5
	}
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if len(via) >= hops {
			return fmt.Errorf("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return fmt.Errorf("redirect to unsupported scheme")
		}
		return nil
	}
	if c.HTTPClient != nil {
		// Clone to attach the redirect policy without mutating the caller's client.
		base := *c.HTTPClient
		base.CheckRedirect = checkRedirect
		return &base
	}
	return &http.Client{Timeout: c.Timeout, CheckRedirect: checkRedirect}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return s == "http" || s == "https"
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
