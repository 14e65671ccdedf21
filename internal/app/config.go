package app

import "time"

// Config holds runtime configuration for the service.
type Config struct {
	// HTTP
	ListenAddr string

	// LLM (synthesis path enabled only when APIKey is set)
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Cache
	CacheDir  string
	SearchTTL time.Duration
	FetchTTL  time.Duration
	LLMTTL    time.Duration

	// Pipeline
	GlobalBudget     time.Duration
	FetchTimeout     time.Duration
	MaxResults       int
	FetchConcurrency int
	Language         string
	UserAgent        string

	Verbose bool
}

// Defaults returns the configuration baseline before flags, env, and file
// overlays are applied.
func Defaults() Config {
	return Config{
		ListenAddr:       ":8080",
		LLMModel:         "gpt-4o-mini",
		CacheDir:         ".goanswer-cache",
		SearchTTL:        12 * time.Hour,
		FetchTTL:         24 * time.Hour,
		LLMTTL:           24 * time.Hour,
		GlobalBudget:     8 * time.Second,
		FetchTimeout:     5 * time.Second,
		MaxResults:       6,
		FetchConcurrency: 6,
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/123.0 Safari/537.36",
	}
}
