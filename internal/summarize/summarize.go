package summarize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperifyio/goanswer/internal/answer"
)

// NothingFound is the reply used when no usable content was gathered. It is
// a success outcome, not an error.
const NothingFound = "I couldn't gather enough reliable information from the web results to answer that confidently."

// Options tunes the extractive engine. Zero values select the defaults.
type Options struct {
	MaxSentences int // sentences in the answer (default 6)
	MaxDocs      int // documents considered (default 5)
	MaxPerDoc    int // sentences taken per document (default 20)

	K1 float64 // BM25 saturation (default 1.2)
	B  float64 // BM25 length normalization (default 0.75)

	SimilarityThreshold float64 // LexRank edge threshold (default 0.1)
	BM25Weight          float64 // combined-score weight (default 0.7)
	CentralityWeight    float64 // combined-score weight (default 0.3)
}

func (o Options) withDefaults() Options {
	if o.MaxSentences <= 0 {
		o.MaxSentences = 6
	}
	if o.MaxDocs <= 0 {
		o.MaxDocs = 5
	}
	if o.MaxPerDoc <= 0 {
		o.MaxPerDoc = 20
	}
	if o.BM25Weight <= 0 && o.CentralityWeight <= 0 {
		o.BM25Weight, o.CentralityWeight = 0.7, 0.3
	}
	return o
}

type sentence struct {
	doc    int // index into docs
	pos    int // position within the document
	text   string
	tokens []string
}

// Summarize builds a cited extractive answer: BM25 scores each sentence
// against the query, LexRank scores graph centrality over the sentence
// similarity graph, and the weighted combination selects the answer
// sentences, which are re-ordered by document position for readability.
// For any non-empty document set with non-empty text the reply is non-empty.
func Summarize(query string, docs []answer.Document, opts Options) answer.Answer {
	opts = opts.withDefaults()
	if len(docs) > opts.MaxDocs {
		docs = docs[:opts.MaxDocs]
	}

	var sentences []sentence
	for di, d := range docs {
		split := splitSentences(d.Text)
		if len(split) > opts.MaxPerDoc {
			split = split[:opts.MaxPerDoc]
		}
		for pi, s := range split {
			sentences = append(sentences, sentence{doc: di, pos: pi, text: s, tokens: tokenize(s)})
		}
	}
	if len(sentences) == 0 {
		// Fall back to raw text lines so non-empty input always yields a reply.
		for di, d := range docs {
			if t := strings.TrimSpace(d.Text); t != "" {
				sentences = append(sentences, sentence{doc: di, text: clip(t, 300), tokens: tokenize(t)})
			}
		}
	}
	if len(sentences) == 0 {
		return answer.Answer{Reply: NothingFound, Sources: []answer.Source{}}
	}

	tokenSets := make([][]string, len(sentences))
	for i, s := range sentences {
		tokenSets[i] = s.tokens
	}
	relevance := newBM25(tokenSets, opts.K1, opts.B)
	queryTerms := tokenize(query)
	bmScores := make([]float64, len(sentences))
	for i := range sentences {
		bmScores[i] = relevance.score(queryTerms, i)
	}
	centrality := lexrank(tokenSets, opts.SimilarityThreshold, 0.85, 1e-4, 100)

	combined := make([]float64, len(sentences))
	bmMax := maxOf(bmScores)
	ceMax := maxOf(centrality)
	for i := range combined {
		var bm, ce float64
		if bmMax > 0 {
			bm = bmScores[i] / bmMax
		}
		if ceMax > 0 {
			ce = centrality[i] / ceMax
		}
		combined[i] = opts.BM25Weight*bm + opts.CentralityWeight*ce
	}

	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return combined[order[a]] > combined[order[b]]
	})

	// Top sentences, suppressing near-duplicates by leading-prefix key.
	var chosen []int
	seen := map[string]struct{}{}
	for _, i := range order {
		if len(chosen) >= opts.MaxSentences {
			break
		}
		key := dupKey(sentences[i].text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		chosen = append(chosen, i)
	}

	// Restore document order within the winning set for readability.
	sort.Slice(chosen, func(a, b int) bool {
		sa, sb := sentences[chosen[a]], sentences[chosen[b]]
		if sa.doc != sb.doc {
			return sa.doc < sb.doc
		}
		return sa.pos < sb.pos
	})

	// Citation numbers are 1-based positions in the cited-source list.
	citedDocs := make([]int, 0, len(docs))
	citation := map[int]int{}
	for _, i := range chosen {
		if _, ok := citation[sentences[i].doc]; !ok {
			citedDocs = append(citedDocs, sentences[i].doc)
			citation[sentences[i].doc] = len(citedDocs)
		}
	}
	sort.Ints(citedDocs)
	for n, di := range citedDocs {
		citation[di] = n + 1
	}

	var b strings.Builder
	b.WriteString("Here is a quick summary based on current web sources:\n")
	for _, i := range chosen {
		fmt.Fprintf(&b, "- %s [%d]\n", sentences[i].text, citation[sentences[i].doc])
	}

	sources := make([]answer.Source, 0, len(citedDocs))
	for _, di := range citedDocs {
		title := docs[di].Title
		if title == "" {
			title = "Untitled"
		}
		sources = append(sources, answer.Source{URL: docs[di].URL, Title: title})
	}
	return answer.Answer{Reply: strings.TrimRight(b.String(), "\n"), Sources: sources}
}

func dupKey(s string) string {
	s = strings.ToLower(s)
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func maxOf(xs []float64) float64 {
	var m float64
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}
