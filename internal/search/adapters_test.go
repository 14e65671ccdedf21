package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyperifyio/goanswer/internal/cache"
)

func TestStackOverflow_ParsesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("site") != "stackoverflow" {
			t.Errorf("site param: %q", r.URL.Query().Get("site"))
		}
		_, _ = w.Write([]byte(`{"items":[
			{"title":"How does BM25 work in Lucene &amp; Elasticsearch?","link":"https://stackoverflow.com/q/1","last_activity_date":1700000000},
			{"title":"BM25 vs TF-IDF","link":"https://stackoverflow.com/q/2"}
		]}`))
	}))
	defer srv.Close()

	p := &StackOverflow{BaseURL: srv.URL, Cache: &cache.Store{Dir: t.TempDir()}, TTL: time.Hour}
	results, err := p.Search(context.Background(), "bm25", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "How does BM25 work in Lucene & Elasticsearch?" {
		t.Fatalf("HTML entities not unescaped: %q", results[0].Title)
	}
	if results[0].Published.IsZero() {
		t.Fatalf("expected last activity date on first result")
	}
	if results[1].Published.IsZero() == false {
		t.Fatalf("expected zero date on second result")
	}
}

func TestMDN_ResolvesRelativeURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[
			{"title":"Array.prototype.sort()","mdn_url":"/en-US/docs/Web/JavaScript/Reference/Global_Objects/Array/sort","summary":"Sorts the elements of an array."}
		]}`))
	}))
	defer srv.Close()
	base := srv.URL

	p := &MDN{BaseURL: base, Cache: &cache.Store{Dir: t.TempDir()}, TTL: time.Hour}
	results, err := p.Search(context.Background(), "array sort", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	want := base + "/en-US/docs/Web/JavaScript/Reference/Global_Objects/Array/sort"
	if results[0].URL != want {
		t.Fatalf("relative URL not resolved: got %q want %q", results[0].URL, want)
	}
	if results[0].Snippet == "" {
		t.Fatalf("expected summary as snippet")
	}
}

func TestGitHub_ParsesRepositories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sort") != "stars" {
			t.Errorf("sort param: %q", r.URL.Query().Get("sort"))
		}
		_, _ = w.Write([]byte(`{"items":[
			{"full_name":"blevesearch/bleve","html_url":"https://github.com/blevesearch/bleve","description":"A modern text indexing library for go","pushed_at":"2024-06-01T12:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	p := &GitHub{BaseURL: srv.URL, Cache: &cache.Store{Dir: t.TempDir()}, TTL: time.Hour}
	results, err := p.Search(context.Background(), "bm25 go", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Title != "blevesearch/bleve" || r.URL != "https://github.com/blevesearch/bleve" {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.Published.IsZero() {
		t.Fatalf("expected pushed_at to populate Published")
	}
}

func TestAdapters_FailuresSurfaceAsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := &cache.Store{Dir: t.TempDir()}
	providers := []Provider{
		&StackOverflow{BaseURL: srv.URL, Cache: store, TTL: time.Hour},
		&MDN{BaseURL: srv.URL, Cache: store, TTL: time.Hour},
		&GitHub{BaseURL: srv.URL, Cache: store, TTL: time.Hour},
	}
	for _, p := range providers {
		if _, err := p.Search(context.Background(), "q", 2); err == nil {
			t.Fatalf("%s: expected error", p.Name())
		}
	}
}
