package concepts

import (
	"math"
	"math/rand"
)

// projectionSeed fixes the random projection so repeated runs over the
// same embeddings produce the identical reduced space — Date.now()/
// time-seeded randomness would break spec.md's reprocess-monotonicity
// invariant. Matches the original's UMAP(random_state=42).
const projectionSeed = 42

// randomProjection is a deterministic Johnson-Lindenstrauss-style
// dimensionality reduction: embeddings are projected onto a fixed random
// orthonormal-ish basis. It stands in for UMAP's manifold learning (no
// pack repo vendors a UMAP/t-SNE implementation) while keeping the
// property this pipeline actually needs: a stable, reproducible lower-
// dimensional space that preserves relative distances well enough for
// density clustering.
type randomProjection struct {
	matrix [][]float64 // [outDim][inDim]
}

func newRandomProjection(inDim, outDim int) *randomProjection {
	if outDim > inDim {
		outDim = inDim
	}
	r := rand.New(rand.NewSource(projectionSeed))
	matrix := make([][]float64, outDim)
	scale := 1.0 / math.Sqrt(float64(outDim))
	for i := range matrix {
		row := make([]float64, inDim)
		for j := range row {
			row[j] = (r.Float64()*2 - 1) * scale
		}
		matrix[i] = row
	}
	return &randomProjection{matrix: matrix}
}

func (p *randomProjection) transform(vec []float32) []float64 {
	out := make([]float64, len(p.matrix))
	for i, row := range p.matrix {
		var sum float64
		n := len(row)
		if len(vec) < n {
			n = len(vec)
		}
		for j := 0; j < n; j++ {
			sum += row[j] * float64(vec[j])
		}
		out[i] = sum
	}
	return out
}

func (p *randomProjection) transformAll(vecs [][]float32) [][]float64 {
	out := make([][]float64, len(vecs))
	for i, v := range vecs {
		out[i] = p.transform(v)
	}
	return out
}
