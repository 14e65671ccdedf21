package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"
)

// Namespaces used across the pipeline. Keys from different namespaces never
// collide even for identical inputs.
const (
	NamespaceSearch = "search"
	NamespacePage   = "page"
	NamespaceLLM    = "llm"
)

// ErrMiss is returned by Get when the key is absent, expired, or unreadable.
var ErrMiss = errors.New("cache: miss")

// Store is a content-addressed disk cache with per-entry TTLs. Entries are
// stored as <sha256(namespace+input)>.json and evicted lazily on read once
// expired. A nil Store is valid and behaves as always-miss.
type Store struct {
	Dir string

	group singleflight.Group
}

type envelope struct {
	StoredAt   time.Time       `json:"stored_at"`
	TTLSeconds int64           `json:"ttl_seconds"`
	Payload    json.RawMessage `json:"payload"`
}

// KeyFrom builds the on-disk key for a namespace and input.
func KeyFrom(namespace, input string) string {
	h := sha256.Sum256([]byte(namespace + "\n" + input))
	return hex.EncodeToString(h[:])
}

func (s *Store) ensureDir() error {
	if s == nil || s.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

func (s *Store) pathFor(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

// Get unmarshals the cached payload for (namespace, input) into out. Expired
// entries are removed and reported as ErrMiss. Corrupt entries are a miss,
// never a fatal error.
func (s *Store) Get(_ context.Context, namespace, input string, out any) error {
	if s == nil || s.Dir == "" {
		return ErrMiss
	}
	p := s.pathFor(KeyFrom(namespace, input))
	b, err := os.ReadFile(p)
	if err != nil {
		return ErrMiss
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		_ = os.Remove(p)
		return ErrMiss
	}
	if env.TTLSeconds > 0 && time.Since(env.StoredAt) > time.Duration(env.TTLSeconds)*time.Second {
		_ = os.Remove(p)
		return ErrMiss
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		_ = os.Remove(p)
		return ErrMiss
	}
	return nil
}

// Put stores payload under (namespace, input) with the given TTL. A TTL of
// zero means the entry never expires.
func (s *Store) Put(_ context.Context, namespace, input string, payload any, ttl time.Duration) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := envelope{
		StoredAt:   time.Now().UTC(),
		TTLSeconds: int64(ttl / time.Second),
		Payload:    raw,
	}
	b, err := json.Marshal(&env)
	if err != nil {
		return err
	}
	p := s.pathFor(KeyFrom(namespace, input))
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// GetOrCompute returns the cached payload for (namespace, input), computing
// and storing it on miss. For a given key at most one compute is in flight;
// concurrent callers for the same key wait on the first caller's result
// instead of duplicating the work.
func (s *Store) GetOrCompute(ctx context.Context, namespace, input string, ttl time.Duration, out any, compute func(ctx context.Context) (any, error)) error {
	if s == nil || s.Dir == "" {
		v, err := compute(ctx)
		if err != nil {
			return err
		}
		return reencode(v, out)
	}
	if err := s.Get(ctx, namespace, input, out); err == nil {
		return nil
	}
	key := KeyFrom(namespace, input)
	v, err, _ := s.group.Do(key, func() (any, error) {
		// Re-check under the flight lock: another caller may have stored the
		// entry between our miss and acquiring the flight.
		var raw json.RawMessage
		if err := s.Get(ctx, namespace, input, &raw); err == nil {
			return raw, nil
		}
		computed, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.Put(ctx, namespace, input, computed, ttl); err != nil {
			return nil, err
		}
		return computed, nil
	})
	if err != nil {
		return err
	}
	return reencode(v, out)
}

// reencode copies an arbitrary value into out through its JSON form so that
// cached and freshly-computed results decode identically.
func reencode(v, out any) error {
	if out == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
