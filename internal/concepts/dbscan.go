package concepts

import "math"

// noiseLabel marks points that don't belong to any dense region, mirroring
// HDBSCAN's label == -1 for noise.
const noiseLabel = -1

// densityCluster is an HDBSCAN-like density clustering pass: a
// straightforward DBSCAN (fixed epsilon neighborhood + minSamples core-
// point threshold) over the projected points, using euclidean distance
// to match the original's `metric='euclidean'` clustering step (UMAP's
// cosine metric is applied earlier, during projection/embedding). Unlike
// HDBSCAN this doesn't vary density thresholds across the tree, but it
// preserves the two knobs the spec exposes (min_cluster_size,
// min_samples) and is fully deterministic given a fixed point order.
func densityCluster(points [][]float64, eps float64, minSamples, minClusterSize int) []int {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = noiseLabel
	}
	visited := make([]bool, n)

	neighbors := func(i int) []int {
		var out []int
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if euclidean(points[i], points[j]) <= eps {
				out = append(out, j)
			}
		}
		return out
	}

	cluster := 0
	clusterMembers := make(map[int][]int)

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neigh := neighbors(i)
		if len(neigh)+1 < minSamples {
			continue // stays noise for now
		}

		labels[i] = cluster
		clusterMembers[cluster] = append(clusterMembers[cluster], i)

		queue := append([]int{}, neigh...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if !visited[j] {
				visited[j] = true
				jNeigh := neighbors(j)
				if len(jNeigh)+1 >= minSamples {
					queue = append(queue, jNeigh...)
				}
			}
			if labels[j] == noiseLabel {
				labels[j] = cluster
				clusterMembers[cluster] = append(clusterMembers[cluster], j)
			}
		}

		cluster++
	}

	for c, members := range clusterMembers {
		if len(members) < minClusterSize {
			for _, idx := range members {
				labels[idx] = noiseLabel
			}
			delete(clusterMembers, c)
		}
	}

	return labels
}

func euclidean(a, b []float64) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
