package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/goanswer/internal/cache"
)

const defaultMDNURL = "https://developer.mozilla.org"

// MDN searches MDN Web Docs through its site search API.
type MDN struct {
	BaseURL    string // defaults to developer.mozilla.org
	HTTPClient *http.Client
	UserAgent  string
	Cache      *cache.Store
	TTL        time.Duration
}

func (m *MDN) Name() string { return "mdn" }

func (m *MDN) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 3
	}
	input := fmt.Sprintf("%s\n%d\n%s", m.Name(), limit, normalizeQuery(query))
	var out []Result
	err := m.Cache.GetOrCompute(ctx, cache.NamespaceSearch, input, m.TTL, &out, func(ctx context.Context) (any, error) {
		return m.search(ctx, query, limit)
	})
	return out, err
}

func (m *MDN) search(ctx context.Context, query string, limit int) ([]Result, error) {
	base := m.BaseURL
	if base == "" {
		base = defaultMDNURL
	}
	base = strings.TrimRight(base, "/")
	params := url.Values{
		"q":         {query},
		"locale":    {"en-US"},
		"highlight": {"false"},
		"size":      {fmt.Sprintf("%d", limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/v1/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	hc := m.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("mdn status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Documents []struct {
			Title   string `json:"title"`
			MDNURL  string `json:"mdn_url"`
			Summary string `json:"summary"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(payload.Documents))
	for _, d := range payload.Documents {
		if d.MDNURL == "" {
			continue
		}
		link := d.MDNURL
		if !strings.HasPrefix(link, "http") {
			link = base + link
		}
		title := d.Title
		if title == "" {
			title = "MDN Web Docs"
		}
		out = append(out, Result{Title: title, URL: link, Snippet: d.Summary, Source: m.Name()})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
