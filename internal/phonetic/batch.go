package phonetic

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pair is one IPA string pair for batch distance computation.
type Pair struct {
	A, B string
}

// BatchDistance computes distances for N pairs using data parallelism
// across available cores, per spec.md §4.8's batch-API requirement.
// Results preserve input order; the computation is deterministic
// regardless of worker count.
func BatchDistance(ctx context.Context, pairs []Pair) ([]float64, error) {
	results := make([]float64, len(pairs))
	if len(pairs) == 0 {
		return results, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(pairs) {
		workers = len(pairs)
	}
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(pairs) + workers - 1) / workers

	for start := 0; start < len(pairs); start += chunk {
		end := start + chunk
		if end > len(pairs) {
			end = len(pairs)
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				results[i] = Distance(pairs[i].A, pairs[i].B)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SimilarityMatrix computes the full pairwise similarity matrix for a set
// of IPA strings, parallelizing over the upper-triangle index pairs and
// mirroring the result, grounded on langviz-rs's compute_similarity_matrix.
func SimilarityMatrix(ctx context.Context, ipaStrings []string) ([][]float64, error) {
	n := len(ipaStrings)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}
	if n < 2 {
		return matrix, nil
	}

	var cells []matrixCell
	var pairs []Pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			cells = append(cells, matrixCell{i, j})
			pairs = append(pairs, Pair{A: ipaStrings[i], B: ipaStrings[j]})
		}
	}

	dists, err := BatchDistance(ctx, pairs)
	if err != nil {
		return nil, err
	}

	for k, c := range cells {
		sim := 1 - dists[k]
		if sim < 0 {
			sim = 0
		}
		matrix[c.i][c.j] = sim
		matrix[c.j][c.i] = sim
	}

	return matrix, nil
}

type matrixCell struct{ i, j int }
