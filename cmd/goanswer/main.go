package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goanswer/internal/app"
	"github.com/hyperifyio/goanswer/internal/server"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var cfg app.Config
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to optional YAML config file")
	flag.StringVar(&cfg.ListenAddr, "addr", "", "HTTP listen address")
	flag.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	flag.StringVar(&cfg.LLMModel, "llm.model", "", "Model name for the synthesis path")
	flag.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key enabling model synthesis")
	flag.StringVar(&cfg.CacheDir, "cache.dir", "", "Cache directory path")
	flag.DurationVar(&cfg.SearchTTL, "cache.searchTTL", 0, "TTL for cached search results")
	flag.DurationVar(&cfg.FetchTTL, "cache.fetchTTL", 0, "TTL for cached page bodies")
	flag.DurationVar(&cfg.GlobalBudget, "budget", 0, "Global time budget per request")
	flag.DurationVar(&cfg.FetchTimeout, "fetch.timeout", 0, "Per-fetch timeout")
	flag.IntVar(&cfg.MaxResults, "max.results", 0, "Maximum candidate pages per request")
	flag.IntVar(&cfg.FetchConcurrency, "fetch.concurrency", 0, "Parallel page fetch limit")
	flag.StringVar(&cfg.Language, "lang", "", "Optional language hint, e.g. 'en' or 'fi'")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.Parse()

	app.ApplyEnvToConfig(&cfg)
	if configPath != "" {
		fc, err := app.LoadFileConfig(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("config file")
		}
		app.MergeFileConfig(&cfg, fc)
	}
	applyDefaults(&cfg, app.Defaults())

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	composer := app.BuildComposer(cfg, log.Logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           (&server.Server{Composer: composer, Log: log.Logger}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
}

// applyDefaults fills any field still unset after flags, env, and file.
func applyDefaults(cfg *app.Config, d app.Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = d.ListenAddr
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = d.LLMModel
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = d.CacheDir
	}
	if cfg.SearchTTL == 0 {
		cfg.SearchTTL = d.SearchTTL
	}
	if cfg.FetchTTL == 0 {
		cfg.FetchTTL = d.FetchTTL
	}
	if cfg.LLMTTL == 0 {
		cfg.LLMTTL = d.LLMTTL
	}
	if cfg.GlobalBudget == 0 {
		cfg.GlobalBudget = d.GlobalBudget
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = d.FetchTimeout
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = d.MaxResults
	}
	if cfg.FetchConcurrency == 0 {
		cfg.FetchConcurrency = d.FetchConcurrency
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = d.UserAgent
	}
}
