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

const defaultWikipediaURL = "https://en.wikipedia.org"

// Wikipedia searches the encyclopedia through its opensearch API and
// attaches the REST summary extract as the result body, so these results
// skip the page-fetch stage.
type Wikipedia struct {
	BaseURL    string // defaults to en.wikipedia.org
	HTTPClient *http.Client
	UserAgent  string
	Cache      *cache.Store
	TTL        time.Duration
}

func (w *Wikipedia) Name() string { return "wikipedia" }

func (w *Wikipedia) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 3
	}
	input := fmt.Sprintf("%s\n%d\n%s", w.Name(), limit, normalizeQuery(query))
	var out []Result
	err := w.Cache.GetOrCompute(ctx, cache.NamespaceSearch, input, w.TTL, &out, func(ctx context.Context) (any, error) {
		results, err := w.opensearch(ctx, query, limit)
		if err == nil && len(results) > 0 {
			return results, nil
		}
		return w.restSearch(ctx, query, limit)
	})
	return out, err
}

func (w *Wikipedia) base() string {
	if w.BaseURL != "" {
		return strings.TrimRight(w.BaseURL, "/")
	}
	return defaultWikipediaURL
}

// opensearch returns titles and canonical URLs; the response is a positional
// JSON array: [query, [titles], [descriptions], [urls]].
func (w *Wikipedia) opensearch(ctx context.Context, query string, limit int) ([]Result, error) {
	params := url.Values{
		"action":    {"opensearch"},
		"search":    {query},
		"limit":     {fmt.Sprintf("%d", limit)},
		"namespace": {"0"},
		"format":    {"json"},
	}
	raw, err := w.getJSON(ctx, w.base()+"/w/api.php?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, err
	}
	if len(parts) < 4 {
		return nil, fmt.Errorf("wikipedia opensearch: short response")
	}
	var titles, urls []string
	if err := json.Unmarshal(parts[1], &titles); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(parts[3], &urls); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(titles))
	for i, title := range titles {
		pageURL := ""
		if i < len(urls) {
			pageURL = urls[i]
		}
		if pageURL == "" {
			pageURL = w.base() + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
		}
		extract := w.summary(ctx, title)
		if extract == "" {
			continue
		}
		out = append(out, Result{
			Title:   title,
			URL:     pageURL,
			Snippet: firstSentenceOf(extract),
			Body:    extract,
			Source:  w.Name(),
		})
	}
	return out, nil
}

// restSearch is the fallback when opensearch yields nothing.
func (w *Wikipedia) restSearch(ctx context.Context, query string, limit int) ([]Result, error) {
	params := url.Values{"q": {query}, "limit": {fmt.Sprintf("%d", limit)}}
	raw, err := w.getJSON(ctx, w.base()+"/w/rest.php/v1/search/page?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var resp struct {
		Pages []struct {
			Key   string `json:"key"`
			Title string `json:"title"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		if p.Key == "" {
			continue
		}
		title := p.Title
		if title == "" {
			title = p.Key
		}
		extract := w.summary(ctx, p.Key)
		if extract == "" {
			continue
		}
		out = append(out, Result{
			Title:   title,
			URL:     w.base() + "/wiki/" + url.PathEscape(p.Key),
			Snippet: firstSentenceOf(extract),
			Body:    extract,
			Source:  w.Name(),
		})
	}
	return out, nil
}

// summary fetches the REST v1 page summary extract; failures degrade to an
// empty string so the result is simply dropped.
func (w *Wikipedia) summary(ctx context.Context, title string) string {
	key := strings.ReplaceAll(title, " ", "_")
	raw, err := w.getJSON(ctx, w.base()+"/api/rest_v1/page/summary/"+url.PathEscape(key))
	if err != nil {
		return ""
	}
	var resp struct {
		Extract string `json:"extract"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ""
	}
	return strings.TrimSpace(resp.Extract)
}

func (w *Wikipedia) getJSON(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if w.UserAgent != "" {
		req.Header.Set("User-Agent", w.UserAgent)
	}
	hc := w.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("wikipedia status: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

func firstSentenceOf(text string) string {
	if i := strings.IndexAny(text, ".!?"); i > 0 && i+1 < len(text) {
		return strings.TrimSpace(text[:i+1])
	}
	return text
}
