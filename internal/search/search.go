package search

import (
	"context"
	"time"
)

// Result represents a single search hit from any provider.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Source  string // provider name for observability
	// Body carries pre-fetched page text when the provider already retrieved
	// an extract (e.g. encyclopedia summaries). Results with a Body skip the
	// page fetch stage.
	Body string
	// Published is the publish or last-activity time when the provider
	// reports one; zero otherwise.
	Published time.Time
}

// Provider is a minimal interface for search providers.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}
