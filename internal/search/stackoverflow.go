package search

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hyperifyio/goanswer/internal/cache"
)

const defaultStackExchangeURL = "https://api.stackexchange.com"

// StackOverflow searches Stack Overflow questions via the StackExchange API.
type StackOverflow struct {
	BaseURL    string // defaults to api.stackexchange.com
	Site       string // defaults to "stackoverflow"
	HTTPClient *http.Client
	UserAgent  string
	Cache      *cache.Store
	TTL        time.Duration
}

func (s *StackOverflow) Name() string { return "stackoverflow" }

func (s *StackOverflow) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 3
	}
	input := fmt.Sprintf("%s\n%d\n%s", s.Name(), limit, normalizeQuery(query))
	var out []Result
	err := s.Cache.GetOrCompute(ctx, cache.NamespaceSearch, input, s.TTL, &out, func(ctx context.Context) (any, error) {
		return s.search(ctx, query, limit)
	})
	return out, err
}

func (s *StackOverflow) search(ctx context.Context, query string, limit int) ([]Result, error) {
	base := s.BaseURL
	if base == "" {
		base = defaultStackExchangeURL
	}
	site := s.Site
	if site == "" {
		site = "stackoverflow"
	}
	params := url.Values{
		"order":    {"desc"},
		"sort":     {"relevance"},
		"q":        {query},
		"site":     {site},
		"pagesize": {fmt.Sprintf("%d", limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/2.3/search/advanced?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	hc := s.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("stackexchange status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Items []struct {
			Title            string `json:"title"`
			Link             string `json:"link"`
			LastActivityDate int64  `json:"last_activity_date"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(payload.Items))
	for _, it := range payload.Items {
		if it.Link == "" {
			continue
		}
		title := it.Title
		if title == "" {
			title = "Stack Overflow question"
		}
		r := Result{
			// The API HTML-escapes titles.
			Title:  html.UnescapeString(title),
			URL:    it.Link,
			Source: s.Name(),
		}
		if it.LastActivityDate > 0 {
			r.Published = time.Unix(it.LastActivityDate, 0).UTC()
		}
		out = append(out, r)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
