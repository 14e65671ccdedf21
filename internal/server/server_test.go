package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/goanswer/internal/compose"
	"github.com/hyperifyio/goanswer/internal/fetch"
	"github.com/hyperifyio/goanswer/internal/search"
)

type fixedProvider struct {
	results []search.Result
}

func (p *fixedProvider) Name() string { return "duckduckgo" }

func (p *fixedProvider) Search(context.Context, string, int) ([]search.Result, error) {
	return p.results, nil
}

// testServer wires a composer whose only provider returns pre-fetched bodies,
// so no outbound HTTP happens during handler tests.
func testServer() *Server {
	p := &fixedProvider{results: []search.Result{
		{
			Title:  "Okapi BM25",
			URL:    "https://example.org/bm25",
			Body:   "BM25 is a bag-of-words ranking function used by search engines. It estimates the relevance of documents to a query.",
			Source: "duckduckgo",
		},
	}}
	return &Server{
		Composer: &compose.Composer{
			Providers:    []search.Provider{p},
			Fetcher:      &fetch.Client{Timeout: time.Second},
			Log:          zerolog.Nop(),
			GlobalBudget: 5 * time.Second,
		},
		Log: zerolog.Nop(),
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body: %v", body)
	}
}

func TestChat_ReturnsAnswerWithSources(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"message":"what is bm25"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var body struct {
		Reply   string `json:"reply"`
		Sources []struct {
			URL   string `json:"url"`
			Title string `json:"title"`
		} `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Reply == "" {
		t.Fatalf("empty reply")
	}
	if len(body.Sources) != 1 || body.Sources[0].URL != "https://example.org/bm25" {
		t.Fatalf("sources: %+v", body.Sources)
	}
}

func TestChat_RejectsEmptyMessage(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	for _, payload := range []string{`{"message":""}`, `{"message":"   "}`} {
		resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("payload %s: status %d", payload, resp.StatusCode)
		}
	}
}

func TestChat_RejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestChatStream_RejectsEmptyMessage(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/chat/stream?message=")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestChatStream_EventSequence(t *testing.T) {
	srv := httptest.NewServer(testServer().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/chat/stream?message=what+is+bm25")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}

	var phases []string
	var final struct {
		Phase   string `json:"phase"`
		Payload struct {
			Reply   string `json:"reply"`
			Sources []struct {
				URL   string `json:"url"`
				Title string `json:"title"`
			} `json:"sources"`
		} `json:"payload"`
	}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		raw := strings.TrimPrefix(line, "data: ")
		var probe struct {
			Phase string `json:"phase"`
		}
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			t.Fatalf("event is not valid JSON: %q: %v", raw, err)
		}
		phases = append(phases, probe.Phase)
		if probe.Phase == "answer" {
			if err := json.Unmarshal([]byte(raw), &final); err != nil {
				t.Fatalf("decode answer event: %v", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	want := []string{"searching", "reading", "answer"}
	if fmt.Sprint(phases) != fmt.Sprint(want) {
		t.Fatalf("phases: got %v want %v", phases, want)
	}
	if final.Payload.Reply == "" {
		t.Fatalf("answer event missing reply")
	}
	if len(final.Payload.Sources) != 1 {
		t.Fatalf("answer event sources: %+v", final.Payload.Sources)
	}
}
