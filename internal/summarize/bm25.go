package summarize

import "math"

// bm25 scores sentences against query terms. Document frequency is computed
// over the sentence collection; k1 controls term-frequency saturation and b
// the length normalization.
type bm25 struct {
	k1, b  float64
	docs   [][]string
	avgLen float64
	idf    map[string]float64
}

func newBM25(docs [][]string, k1, b float64) *bm25 {
	if k1 <= 0 {
		k1 = 1.2
	}
	if b <= 0 {
		b = 0.75
	}
	m := &bm25{k1: k1, b: b, docs: docs, idf: map[string]float64{}}
	var total float64
	df := map[string]float64{}
	for _, doc := range docs {
		total += float64(len(doc))
		seen := map[string]bool{}
		for _, w := range doc {
			if !seen[w] {
				seen[w] = true
				df[w]++
			}
		}
	}
	if len(docs) > 0 {
		m.avgLen = total / float64(len(docs))
	}
	n := float64(len(docs))
	for w, f := range df {
		m.idf[w] = math.Log(1 + (n-f+0.5)/(f+0.5))
	}
	return m
}

// score returns the BM25 relevance of document i to the query terms.
func (m *bm25) score(query []string, i int) float64 {
	doc := m.docs[i]
	if len(doc) == 0 || m.avgLen == 0 {
		return 0
	}
	tf := map[string]float64{}
	for _, w := range doc {
		tf[w]++
	}
	norm := m.k1 * (1 - m.b + m.b*float64(len(doc))/m.avgLen)
	var s float64
	for _, q := range query {
		f := tf[q]
		if f == 0 {
			continue
		}
		s += m.idf[q] * (f * (m.k1 + 1)) / (f + norm)
	}
	return s
}
