package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString(&cfg.ListenAddr, "ADDR")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL", "OPENAI_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY", "OPENAI_API_KEY")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.Language, "LANGUAGE")
	setString(&cfg.UserAgent, "USER_AGENT")

	setDuration(&cfg.SearchTTL, "SEARCH_TTL")
	setDuration(&cfg.FetchTTL, "FETCH_TTL")
	setDuration(&cfg.LLMTTL, "LLM_TTL")
	setDuration(&cfg.GlobalBudget, "GLOBAL_BUDGET")
	setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT")

	setInt(&cfg.MaxResults, "MAX_RESULTS")
	setInt(&cfg.FetchConcurrency, "FETCH_CONCURRENCY")

	if !cfg.Verbose {
		switch strings.ToLower(strings.TrimSpace(os.Getenv("VERBOSE"))) {
		case "1", "true", "yes", "on":
			cfg.Verbose = true
		}
	}
}

func setString(dst *string, keys ...string) {
	if *dst != "" {
		return
	}
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			*dst = v
			return
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if *dst != 0 {
		return
	}
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			*dst = d
		}
	}
}

func setInt(dst *int, key string) {
	if *dst != 0 {
		return
	}
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			*dst = n
		}
	}
}
