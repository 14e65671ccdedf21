package compose

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/goanswer/internal/answer"
	"github.com/hyperifyio/goanswer/internal/budget"
	"github.com/hyperifyio/goanswer/internal/fetch"
	"github.com/hyperifyio/goanswer/internal/rank"
	"github.com/hyperifyio/goanswer/internal/search"
	"github.com/hyperifyio/goanswer/internal/summarize"
	"github.com/hyperifyio/goanswer/internal/synth"
)

// ErrEmptyQuery is the only error Answer surfaces for caller input problems;
// every internal pipeline failure degrades to a valid answer instead.
var ErrEmptyQuery = errors.New("compose: empty query")

// Observer receives phase transitions while a request runs. Both transports
// share one orchestration; the streaming one additionally subscribes here.
type Observer interface {
	OnSearching()
	OnReading(count int)
}

type noopObserver struct{}

func (noopObserver) OnSearching() {}
func (noopObserver) OnReading(int) {}

// Composer orchestrates one request end to end: parallel provider search,
// ranking, budget-bounded fetching, and either model synthesis (when
// configured) or the extractive summarizer.
type Composer struct {
	Providers []search.Provider
	Fetcher   *fetch.Client
	// Synth is optional; nil means the extractive path only.
	Synth *synth.Synthesizer
	Log   zerolog.Logger

	// GlobalBudget caps total elapsed time per request. Default 8s.
	GlobalBudget time.Duration
	// MaxResults caps the ranked candidate list. Default 6.
	MaxResults int
	// FetchConcurrency bounds parallel page fetches. Default 6.
	FetchConcurrency int
	// ProviderLimits overrides the per-provider result count by provider
	// name. Unlisted providers get DefaultProviderLimit.
	ProviderLimits map[string]int
	// DefaultProviderLimit defaults to 3.
	DefaultProviderLimit int

	Rank      rank.Options
	Summarize summarize.Options
}

// Answer runs the pipeline for one query. obs may be nil.
func (c *Composer) Answer(ctx context.Context, query string, obs Observer) (answer.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return answer.Answer{}, ErrEmptyQuery
	}
	if obs == nil {
		obs = noopObserver{}
	}
	total := c.GlobalBudget
	if total <= 0 {
		total = 8 * time.Second
	}
	b := budget.New(total)
	bctx, cancel := b.Context(ctx)
	defer cancel()

	obs.OnSearching()
	groups := c.searchAll(bctx, query)

	rankOpts := c.Rank
	if rankOpts.Max == 0 {
		rankOpts.Max = c.MaxResults
	}
	if rankOpts.Max == 0 {
		rankOpts.Max = 6
	}
	candidates := rank.Rank(groups, query, rankOpts)
	obs.OnReading(len(candidates))

	docs := c.gather(bctx, b, candidates)
	if len(docs) == 0 {
		c.Log.Info().Str("query", query).Msg("no usable candidates")
		return answer.Answer{Reply: summarize.NothingFound, Sources: []answer.Source{}}, nil
	}

	if c.Synth != nil {
		ans, err := c.Synth.Synthesize(bctx, query, docs)
		if err == nil {
			return ans, nil
		}
		c.Log.Warn().Err(err).Msg("model synthesis failed; falling back to extractive summary")
	}
	return summarize.Summarize(query, docs, c.Summarize), nil
}

// searchAll fans out to every provider concurrently. A provider failure is
// logged and contributes zero results; groups preserve provider order, which
// is the dedup priority order.
func (c *Composer) searchAll(ctx context.Context, query string) [][]search.Result {
	groups := make([][]search.Result, len(c.Providers))
	var eg errgroup.Group
	for i, p := range c.Providers {
		eg.Go(func() error {
			results, err := p.Search(ctx, query, c.providerLimit(p.Name()))
			if err != nil {
				c.Log.Warn().Err(err).Str("provider", p.Name()).Msg("search failed")
				return nil
			}
			groups[i] = results
			return nil
		})
	}
	_ = eg.Wait()
	return groups
}

func (c *Composer) providerLimit(name string) int {
	if n, ok := c.ProviderLimits[name]; ok && n > 0 {
		return n
	}
	if c.DefaultProviderLimit > 0 {
		return c.DefaultProviderLimit
	}
	return 3
}

// gather turns candidates into documents: results that already carry a body
// (encyclopedia extracts) are used as-is, the rest are fetched in parallel
// under the worker pool and the remaining budget. Fetch failures drop the
// candidate.
func (c *Composer) gather(ctx context.Context, b *budget.Budget, candidates []rank.Candidate) []answer.Document {
	docs := make([]answer.Document, len(candidates))
	limit := c.FetchConcurrency
	if limit <= 0 {
		limit = 6
	}
	var eg errgroup.Group
	eg.SetLimit(limit)
	for i, cand := range candidates {
		if strings.TrimSpace(cand.Body) != "" {
			docs[i] = answer.Document{Title: cand.Title, URL: cand.URL, Text: cand.Body}
			continue
		}
		eg.Go(func() error {
			if b.Exceeded() {
				return nil
			}
			page, err := c.Fetcher.Fetch(ctx, cand.URL)
			if err != nil {
				c.Log.Debug().Err(err).Str("url", cand.URL).Msg("fetch failed; candidate dropped")
				return nil
			}
			title := cand.Title
			if title == "" {
				title = page.Title
			}
			docs[i] = answer.Document{Title: title, URL: cand.URL, Text: page.Text}
			return nil
		})
	}
	_ = eg.Wait()

	out := docs[:0]
	for _, d := range docs {
		if strings.TrimSpace(d.Text) != "" {
			out = append(out, d)
		}
	}
	return out
}
