package app

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// duration accepts Go duration strings ("12h", "500ms") in YAML.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = duration(v)
	return nil
}

// FileConfig is the optional single-file YAML configuration schema. Nested
// sections map naturally onto flags and env.
type FileConfig struct {
	Addr string `yaml:"addr"`

	LLM struct {
		BaseURL string `yaml:"base"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"key"`
	} `yaml:"llm"`

	Cache struct {
		Dir       string   `yaml:"dir"`
		SearchTTL duration `yaml:"searchTTL"`
		FetchTTL  duration `yaml:"fetchTTL"`
		LLMTTL    duration `yaml:"llmTTL"`
	} `yaml:"cache"`

	Pipeline struct {
		Budget           duration `yaml:"budget"`
		FetchTimeout     duration `yaml:"fetchTimeout"`
		MaxResults       int      `yaml:"maxResults"`
		FetchConcurrency int      `yaml:"fetchConcurrency"`
	} `yaml:"pipeline"`

	Language  string `yaml:"language"`
	UserAgent string `yaml:"userAgent"`
	Verbose   bool   `yaml:"verbose"`
}

// LoadFileConfig parses a YAML config file.
func LoadFileConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &fc, nil
}

// MergeFileConfig fills unset cfg fields from the file. Flags and env win
// over the file.
func MergeFileConfig(cfg *Config, fc *FileConfig) {
	if cfg == nil || fc == nil {
		return
	}
	mergeString(&cfg.ListenAddr, fc.Addr)
	mergeString(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	mergeString(&cfg.LLMModel, fc.LLM.Model)
	mergeString(&cfg.LLMAPIKey, fc.LLM.APIKey)
	mergeString(&cfg.CacheDir, fc.Cache.Dir)
	mergeDuration(&cfg.SearchTTL, time.Duration(fc.Cache.SearchTTL))
	mergeDuration(&cfg.FetchTTL, time.Duration(fc.Cache.FetchTTL))
	mergeDuration(&cfg.LLMTTL, time.Duration(fc.Cache.LLMTTL))
	mergeDuration(&cfg.GlobalBudget, time.Duration(fc.Pipeline.Budget))
	mergeDuration(&cfg.FetchTimeout, time.Duration(fc.Pipeline.FetchTimeout))
	mergeInt(&cfg.MaxResults, fc.Pipeline.MaxResults)
	mergeInt(&cfg.FetchConcurrency, fc.Pipeline.FetchConcurrency)
	mergeString(&cfg.Language, fc.Language)
	mergeString(&cfg.UserAgent, fc.UserAgent)
	if fc.Verbose {
		cfg.Verbose = true
	}
}

func mergeString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func mergeDuration(dst *time.Duration, v time.Duration) {
	if *dst == 0 && v > 0 {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if *dst == 0 && v > 0 {
		*dst = v
	}
}
