package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyEnvToConfig(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("SEARCH_TTL", "90m")
	t.Setenv("MAX_RESULTS", "4")
	t.Setenv("VERBOSE", "true")

	var cfg Config
	ApplyEnvToConfig(&cfg)

	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.LLMAPIKey != "sk-env" {
		t.Errorf("LLMAPIKey = %q", cfg.LLMAPIKey)
	}
	if cfg.SearchTTL != 90*time.Minute {
		t.Errorf("SearchTTL = %v", cfg.SearchTTL)
	}
	if cfg.MaxResults != 4 {
		t.Errorf("MaxResults = %d", cfg.MaxResults)
	}
	if !cfg.Verbose {
		t.Errorf("Verbose not set")
	}
}

func TestApplyEnvToConfig_ExplicitValuesWin(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("LLM_API_KEY", "sk-llm-env")
	t.Setenv("OPENAI_API_KEY", "sk-openai-env")

	cfg := Config{ListenAddr: ":3000"}
	ApplyEnvToConfig(&cfg)

	if cfg.ListenAddr != ":3000" {
		t.Errorf("flag value lost: %q", cfg.ListenAddr)
	}
	// LLM_API_KEY outranks OPENAI_API_KEY.
	if cfg.LLMAPIKey != "sk-llm-env" {
		t.Errorf("LLMAPIKey = %q", cfg.LLMAPIKey)
	}
}

func TestLoadAndMergeFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goanswer.yaml")
	doc := `
addr: ":7070"
llm:
  model: gpt-4o
  key: sk-file
cache:
  dir: /tmp/answers
  searchTTL: 6h
pipeline:
  budget: 10s
  maxResults: 8
language: de
verbose: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Env/flag-provided values must survive the merge.
	cfg := Config{LLMModel: "gpt-4o-mini"}
	MergeFileConfig(&cfg, fc)

	if cfg.ListenAddr != ":7070" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.LLMModel != "gpt-4o-mini" {
		t.Errorf("file overrode explicit model: %q", cfg.LLMModel)
	}
	if cfg.LLMAPIKey != "sk-file" {
		t.Errorf("LLMAPIKey = %q", cfg.LLMAPIKey)
	}
	if cfg.CacheDir != "/tmp/answers" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.SearchTTL != 6*time.Hour {
		t.Errorf("SearchTTL = %v", cfg.SearchTTL)
	}
	if cfg.GlobalBudget != 10*time.Second {
		t.Errorf("GlobalBudget = %v", cfg.GlobalBudget)
	}
	if cfg.MaxResults != 8 {
		t.Errorf("MaxResults = %d", cfg.MaxResults)
	}
	if cfg.Language != "de" {
		t.Errorf("Language = %q", cfg.Language)
	}
	if !cfg.Verbose {
		t.Errorf("Verbose not set")
	}
}

func TestLoadFileConfig_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goanswer.yaml")
	if err := os.WriteFile(path, []byte("cache:\n  searchTTL: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFileConfig(path); err == nil {
		t.Fatalf("expected parse error for invalid duration")
	}
}

func TestLoadFileConfig_MissingFile(t *testing.T) {
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", d.ListenAddr)
	}
	if d.SearchTTL != 12*time.Hour || d.FetchTTL != 24*time.Hour {
		t.Errorf("TTLs = %v / %v", d.SearchTTL, d.FetchTTL)
	}
	if d.GlobalBudget != 8*time.Second {
		t.Errorf("GlobalBudget = %v", d.GlobalBudget)
	}
	if d.LLMAPIKey != "" {
		t.Errorf("synthesis must be off by default")
	}
}
