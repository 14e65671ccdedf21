package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/goanswer/internal/cache"
)

const (
	defaultDDGHTMLURL = "https://html.duckduckgo.com/html/"
	defaultDDGLiteURL = "https://lite.duckduckgo.com/lite/"
)

// DuckDuckGo is the primary web-search provider. It scrapes the HTML
// endpoint and retries against the lite endpoint when the HTML one fails or
// returns nothing.
type DuckDuckGo struct {
	HTMLURL    string // defaults to the public html endpoint
	LiteURL    string // defaults to the public lite endpoint
	Region     string // kl parameter, e.g. "us-en"; empty means worldwide
	HTTPClient *http.Client
	UserAgent  string
	Cache      *cache.Store
	TTL        time.Duration
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	input := fmt.Sprintf("%s\n%s\n%d\n%s", d.Name(), d.Region, limit, normalizeQuery(query))
	var out []Result
	err := d.Cache.GetOrCompute(ctx, cache.NamespaceSearch, input, d.TTL, &out, func(ctx context.Context) (any, error) {
		results, err := d.scrape(ctx, d.htmlURL(), query, limit)
		if err == nil && len(results) > 0 {
			return results, nil
		}
		// Lite endpoint is the fallback for rate limits and layout changes.
		lite, liteErr := d.scrape(ctx, d.liteURL(), query, limit)
		if liteErr != nil {
			if err != nil {
				return nil, fmt.Errorf("duckduckgo html: %v; lite: %w", err, liteErr)
			}
			return nil, liteErr
		}
		return lite, nil
	})
	return out, err
}

func (d *DuckDuckGo) htmlURL() string {
	if d.HTMLURL != "" {
		return d.HTMLURL
	}
	return defaultDDGHTMLURL
}

func (d *DuckDuckGo) liteURL() string {
	if d.LiteURL != "" {
		return d.LiteURL
	}
	return defaultDDGLiteURL
}

func (d *DuckDuckGo) scrape(ctx context.Context, endpoint, query string, limit int) ([]Result, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	if d.Region != "" {
		q.Set("kl", d.Region)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}
	hc := d.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("duckduckgo status: %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, limit)
	seen := map[string]struct{}{}
	collect := func(link, title, snippet string) {
		if len(out) >= limit {
			return
		}
		target := resolveRedirect(link)
		if target == "" {
			return
		}
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		if title == "" {
			title = "Untitled"
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(title),
			URL:     target,
			Snippet: strings.TrimSpace(snippet),
			Source:  d.Name(),
		})
	}

	// Full HTML layout: one div.result per hit.
	doc.Find("div.result").Each(func(_ int, s *goquery.Selection) {
		a := s.Find("a.result__a").First()
		href, _ := a.Attr("href")
		collect(href, a.Text(), s.Find(".result__snippet").First().Text())
	})
	if len(out) > 0 {
		return out, nil
	}
	// Lite layout: bare result-link anchors in a table.
	doc.Find("a.result-link").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		collect(href, a.Text(), "")
	})
	return out, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=... redirect links and
// rejects anything that is not an absolute http(s) URL.
func resolveRedirect(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "//") {
		link = "https:" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	if strings.Contains(u.Host, "duckduckgo.com") {
		if target := u.Query().Get("uddg"); target != "" {
			link = target
			u, err = url.Parse(link)
			if err != nil {
				return ""
			}
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// normalizeQuery folds case and whitespace so equivalent queries share a
// cache entry.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
