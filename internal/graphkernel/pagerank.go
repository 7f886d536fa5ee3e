package graphkernel

// PageRank computes weighted PageRank via power iteration, grounded on
// langviz-rs's pagerank implementation: uniform restart distribution,
// dangling-node mass redistributed uniformly, and a fixed iteration count
// rather than a convergence epsilon so results are reproducible across
// runs regardless of floating-point accumulation order.
func (g *Graph) PageRank(damping float64, iterations int) map[string]float64 {
	n := g.NodeCount()
	scores := make(map[string]float64, n)
	if n == 0 {
		return scores
	}

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}

	outWeight := make([]float64, n)
	for i, adj := range g.adjacent {
		for _, nb := range adj {
			outWeight[i] += nb.weight
		}
	}

	for iter := 0; iter < iterations; iter++ {
		next := make([]float64, n)
		danglingMass := 0.0

		for i, w := range outWeight {
			if w == 0 {
				danglingMass += rank[i]
			}
		}

		for i, adj := range g.adjacent {
			if outWeight[i] == 0 {
				continue
			}
			share := rank[i] / outWeight[i]
			for _, nb := range adj {
				next[nb.to] += share * nb.weight
			}
		}

		base := (1 - damping) / float64(n)
		danglingShare := damping * danglingMass / float64(n)
		for i := range next {
			next[i] = base + danglingShare + damping*next[i]
		}

		rank = next
	}

	for i, id := range g.nodes {
		scores[id] = rank[i]
	}
	return scores
}
