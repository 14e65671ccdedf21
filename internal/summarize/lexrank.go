package summarize

import "math"

// lexrank computes graph-centrality scores over sentence term vectors: build
// a cosine-similarity graph with edges above threshold, then power-iterate
// the damped stationary distribution. If the graph has no edges the result
// degenerates to the uniform distribution.
func lexrank(docs [][]string, threshold, damping, tolerance float64, maxIterations int) []float64 {
	n := len(docs)
	if n == 0 {
		return nil
	}
	if threshold <= 0 {
		threshold = 0.1
	}
	if damping <= 0 || damping >= 1 {
		damping = 0.85
	}
	if tolerance <= 0 {
		tolerance = 1e-4
	}
	if maxIterations <= 0 {
		maxIterations = 100
	}

	vectors := make([]map[string]float64, n)
	norms := make([]float64, n)
	for i, doc := range docs {
		v := map[string]float64{}
		for _, w := range doc {
			v[w]++
		}
		var sq float64
		for _, f := range v {
			sq += f * f
		}
		vectors[i] = v
		norms[i] = math.Sqrt(sq)
	}

	// Row-stochastic adjacency; rows without any edge fall back to uniform so
	// disconnected sentences do not sink probability mass.
	adj := make([][]float64, n)
	for i := range adj {
		adj[i] = make([]float64, n)
		var rowSum float64
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sim := cosine(vectors[i], vectors[j], norms[i], norms[j])
			if sim >= threshold {
				adj[i][j] = sim
				rowSum += sim
			}
		}
		if rowSum == 0 {
			for j := 0; j < n; j++ {
				adj[i][j] = 1 / float64(n)
			}
			continue
		}
		for j := 0; j < n; j++ {
			adj[i][j] /= rowSum
		}
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	uniform := 1 / float64(n)
	for i := range rank {
		rank[i] = uniform
	}
	for iter := 0; iter < maxIterations; iter++ {
		var delta float64
		for j := 0; j < n; j++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += adj[i][j] * rank[i]
			}
			next[j] = (1-damping)*uniform + damping*sum
			delta += math.Abs(next[j] - rank[j])
		}
		rank, next = next, rank
		if delta < tolerance {
			break
		}
	}
	return rank
}

func cosine(a, b map[string]float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	if len(b) < len(a) {
		a, b = b, a
	}
	for w, fa := range a {
		if fb, ok := b[w]; ok {
			dot += fa * fb
		}
	}
	return dot / (normA * normB)
}
