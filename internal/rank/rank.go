package rank

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/purell"

	"github.com/hyperifyio/goanswer/internal/search"
)

// Candidate is a deduplicated search result with its canonical URL and
// heuristic relevance score.
type Candidate struct {
	search.Result
	CanonicalURL string
	Score        float64
}

// Options tunes merging and scoring.
type Options struct {
	Max int
	// SourceWeight gives each provider a quality prior. Unlisted providers
	// get zero.
	SourceWeight map[string]float64
	// FreshnessBonus is added (scaled by recency) when a result carries a
	// publish/activity date within the last year.
	FreshnessBonus float64
}

// DefaultSourceWeights reflects the configured provider priority: primary
// web search first, then the fixed-domain providers.
func DefaultSourceWeights() map[string]float64 {
	return map[string]float64{
		"duckduckgo":    1.0,
		"wikipedia":     0.9,
		"stackoverflow": 0.7,
		"mdn":           0.7,
		"github":        0.5,
	}
}

// Rank merges provider result groups (ordered by provider priority),
// deduplicates by canonical URL keeping the higher-priority instance, scores
// every survivor against the query, and returns the top candidates in
// descending score order with discovery order breaking ties.
func Rank(groups [][]search.Result, query string, opt Options) []Candidate {
	if opt.Max <= 0 {
		opt.Max = 6
	}
	if opt.SourceWeight == nil {
		opt.SourceWeight = DefaultSourceWeights()
	}
	if opt.FreshnessBonus == 0 {
		opt.FreshnessBonus = 0.5
	}

	seen := map[string]struct{}{}
	merged := make([]Candidate, 0, 32)
	for _, group := range groups {
		for _, r := range group {
			canon, err := Canonicalize(r.URL)
			if err != nil {
				continue
			}
			if _, dup := seen[canon]; dup {
				continue
			}
			seen[canon] = struct{}{}
			merged = append(merged, Candidate{Result: r, CanonicalURL: canon})
		}
	}
	if len(merged) == 0 {
		return nil
	}

	queryTerms := tokenize(query)
	docs := make([][]string, len(merged))
	for i, c := range merged {
		docs[i] = tokenize(c.Title + " " + c.Snippet)
	}
	idf := inverseDocFreq(docs, queryTerms)

	now := time.Now()
	for i := range merged {
		score := overlapScore(docs[i], queryTerms, idf)
		score += opt.SourceWeight[merged[i].Source]
		if p := merged[i].Published; !p.IsZero() {
			if age := now.Sub(p); age >= 0 && age < 365*24*time.Hour {
				score += opt.FreshnessBonus * (1 - age.Hours()/(365*24))
			}
		}
		merged[i].Score = score
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > opt.Max {
		merged = merged[:opt.Max]
	}
	return merged
}

// trackingParams are stripped before URLs are compared for deduplication.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"utm_id", "gclid", "fbclid", "igshid", "mc_cid", "mc_eid", "ref", "ref_src",
}

// Canonicalize normalizes a URL for deduplication: lowercased scheme and
// host, default port, fragment, dot segments and duplicate slashes removed,
// query sorted, and tracking parameters stripped.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()

	flags := purell.FlagLowercaseScheme |
		purell.FlagLowercaseHost |
		purell.FlagRemoveDefaultPort |
		purell.FlagRemoveFragment |
		purell.FlagDecodeUnnecessaryEscapes |
		purell.FlagSortQuery |
		purell.FlagRemoveDuplicateSlashes |
		purell.FlagRemoveDotSegments
	return purell.NormalizeURL(u, flags), nil
}

func tokenize(s string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 2 {
			out = append(out, b.String())
		}
		b.Reset()
	}
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// inverseDocFreq computes smoothed IDF for the query terms over the merged
// result set, treating each result's title+snippet as a document.
func inverseDocFreq(docs [][]string, terms []string) map[string]float64 {
	n := float64(len(docs))
	idf := make(map[string]float64, len(terms))
	for _, t := range terms {
		var df float64
		for _, doc := range docs {
			for _, w := range doc {
				if w == t {
					df++
					break
				}
			}
		}
		idf[t] = math.Log(1 + (n-df+0.5)/(df+0.5))
	}
	return idf
}

// overlapScore is a BM25-flavored term-frequency score with saturation.
func overlapScore(doc []string, terms []string, idf map[string]float64) float64 {
	if len(doc) == 0 {
		return 0
	}
	const k1 = 1.2
	tf := map[string]float64{}
	for _, w := range doc {
		tf[w]++
	}
	var score float64
	for _, t := range terms {
		f := tf[t]
		if f == 0 {
			continue
		}
		score += idf[t] * (f * (k1 + 1)) / (f + k1)
	}
	return score
}
