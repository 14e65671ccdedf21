package app

import (
	"github.com/rs/zerolog"

	"github.com/hyperifyio/goanswer/internal/cache"
	"github.com/hyperifyio/goanswer/internal/compose"
	"github.com/hyperifyio/goanswer/internal/fetch"
	"github.com/hyperifyio/goanswer/internal/lang"
	"github.com/hyperifyio/goanswer/internal/llm"
	"github.com/hyperifyio/goanswer/internal/search"
	"github.com/hyperifyio/goanswer/internal/synth"
)

// BuildComposer assembles the pipeline from configuration. The cache store
// is the single cross-request shared resource; it is created here once and
// injected into every component that needs it.
func BuildComposer(cfg Config, log zerolog.Logger) *compose.Composer {
	store := &cache.Store{Dir: cfg.CacheDir}
	hc := newOutboundHTTPClient()

	providers := []search.Provider{
		&search.DuckDuckGo{
			Region:     lang.Region(cfg.Language),
			HTTPClient: hc,
			UserAgent:  cfg.UserAgent,
			Cache:      store,
			TTL:        cfg.SearchTTL,
		},
		&search.Wikipedia{HTTPClient: hc, UserAgent: cfg.UserAgent, Cache: store, TTL: cfg.SearchTTL},
		&search.StackOverflow{HTTPClient: hc, UserAgent: cfg.UserAgent, Cache: store, TTL: cfg.SearchTTL},
		&search.MDN{HTTPClient: hc, UserAgent: cfg.UserAgent, Cache: store, TTL: cfg.SearchTTL},
		&search.GitHub{HTTPClient: hc, UserAgent: cfg.UserAgent, Cache: store, TTL: cfg.SearchTTL},
	}

	fetcher := &fetch.Client{
		HTTPClient: hc,
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.FetchTimeout,
		Cache:      store,
		TTL:        cfg.FetchTTL,
	}

	var synthesizer *synth.Synthesizer
	if cfg.LLMAPIKey != "" {
		synthesizer = &synth.Synthesizer{
			Client: llm.New(cfg.LLMAPIKey, cfg.LLMBaseURL),
			Model:  cfg.LLMModel,
			Cache:  store,
			TTL:    cfg.LLMTTL,
		}
		log.Info().Str("model", cfg.LLMModel).Msg("model synthesis enabled")
	} else {
		log.Info().Msg("no model credential; extractive summarizer only")
	}

	return &compose.Composer{
		Providers:        providers,
		Fetcher:          fetcher,
		Synth:            synthesizer,
		Log:              log,
		GlobalBudget:     cfg.GlobalBudget,
		MaxResults:       cfg.MaxResults,
		FetchConcurrency: cfg.FetchConcurrency,
		ProviderLimits: map[string]int{
			"duckduckgo":    cfg.MaxResults,
			"wikipedia":     3,
			"stackoverflow": 2,
			"mdn":           2,
			"github":        1,
		},
	}
}
