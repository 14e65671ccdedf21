package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hyperifyio/goanswer/internal/cache"
)

const defaultGitHubURL = "https://api.github.com"

// GitHub searches repositories by stars. Requests are unauthenticated; the
// anonymous rate limit is tolerable because responses ride the search cache.
type GitHub struct {
	BaseURL    string // defaults to api.github.com
	HTTPClient *http.Client
	UserAgent  string
	Cache      *cache.Store
	TTL        time.Duration
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 2
	}
	input := fmt.Sprintf("%s\n%d\n%s", g.Name(), limit, normalizeQuery(query))
	var out []Result
	err := g.Cache.GetOrCompute(ctx, cache.NamespaceSearch, input, g.TTL, &out, func(ctx context.Context) (any, error) {
		return g.search(ctx, query, limit)
	})
	return out, err
}

func (g *GitHub) search(ctx context.Context, query string, limit int) ([]Result, error) {
	base := g.BaseURL
	if base == "" {
		base = defaultGitHubURL
	}
	params := url.Values{
		"q":        {query},
		"sort":     {"stars"},
		"order":    {"desc"},
		"per_page": {fmt.Sprintf("%d", limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search/repositories?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}
	hc := g.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("github status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Items []struct {
			FullName    string    `json:"full_name"`
			Name        string    `json:"name"`
			HTMLURL     string    `json:"html_url"`
			Description string    `json:"description"`
			PushedAt    time.Time `json:"pushed_at"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(payload.Items))
	for _, it := range payload.Items {
		if it.HTMLURL == "" {
			continue
		}
		title := it.FullName
		if title == "" {
			title = it.Name
		}
		if title == "" {
			title = "GitHub repository"
		}
		out = append(out, Result{
			Title:     title,
			URL:       it.HTMLURL,
			Snippet:   it.Description,
			Source:    g.Name(),
			Published: it.PushedAt,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
