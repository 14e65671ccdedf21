package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPutGet_Roundtrip(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	in := payload{Name: "bm25", Count: 3}
	if err := s.Put(ctx, NamespaceSearch, "what is bm25", in, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	var out payload
	if err := s.Get(ctx, NamespaceSearch, "what is bm25", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", out, in)
	}
}

func TestGet_MissOnAbsentKey(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	var out string
	if err := s.Get(context.Background(), NamespaceSearch, "never stored", &out); err != ErrMiss {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestGet_NamespacesDoNotCollide(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	ctx := context.Background()
	if err := s.Put(ctx, NamespaceSearch, "key", "search value", time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	var out string
	if err := s.Get(ctx, NamespacePage, "key", &out); err != ErrMiss {
		t.Fatalf("expected miss in page namespace, got %v (value %q)", err, out)
	}
}

func TestGet_ExpiredEntryIsMissAndRemoved(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	ctx := context.Background()
	if err := s.Put(ctx, NamespacePage, "https://example.com", "body", 10*time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	var out string
	if err := s.Get(ctx, NamespacePage, "https://example.com", &out); err != ErrMiss {
		t.Fatalf("expected ErrMiss after expiry, got %v", err)
	}
	p := filepath.Join(s.Dir, KeyFrom(NamespacePage, "https://example.com")+".json")
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("expected stale entry to be removed, stat err = %v", err)
	}
}

func TestGet_CorruptEntryIsMiss(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	p := filepath.Join(s.Dir, KeyFrom(NamespaceSearch, "q")+".json")
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out string
	if err := s.Get(context.Background(), NamespaceSearch, "q", &out); err != ErrMiss {
		t.Fatalf("expected ErrMiss for corrupt entry, got %v", err)
	}
}

func TestGetOrCompute_SingleFlight(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	ctx := context.Background()

	var computes atomic.Int32
	compute := func(ctx context.Context) (any, error) {
		computes.Add(1)
		time.Sleep(50 * time.Millisecond)
		return "value", nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out string
			if err := s.GetOrCompute(ctx, NamespaceSearch, "same key", time.Hour, &out, compute); err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = out
		}(i)
	}
	wg.Wait()

	if got := computes.Load(); got != 1 {
		t.Fatalf("expected exactly 1 compute, got %d", got)
	}
	for i, r := range results {
		if r != "value" {
			t.Fatalf("caller %d got %q", i, r)
		}
	}
	// A later call must come from disk, not compute.
	var out string
	if err := s.GetOrCompute(ctx, NamespaceSearch, "same key", time.Hour, &out, compute); err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if computes.Load() != 1 {
		t.Fatalf("expected cached read to skip compute")
	}
}

func TestGetOrCompute_NilStoreComputesEveryTime(t *testing.T) {
	var s *Store
	var computes int
	var out string
	for i := 0; i < 2; i++ {
		err := s.GetOrCompute(context.Background(), NamespaceSearch, "k", time.Hour, &out, func(ctx context.Context) (any, error) {
			computes++
			return "v", nil
		})
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
	}
	if computes != 2 || out != "v" {
		t.Fatalf("nil store should pass through: computes=%d out=%q", computes, out)
	}
}
