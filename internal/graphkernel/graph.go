// Package graphkernel implements the Graph Kernel (spec.md C9): a
// threshold-filtered similarity graph with connected components,
// modularity-based community detection, and PageRank, all deterministic
// under input edge permutation.
package graphkernel

import "sort"

// Edge is one weighted similarity edge between two entry ids.
type Edge struct {
	A, B   string
	Weight float64
}

// Graph is an undirected, weighted adjacency-list graph over string node
// ids, built once from a threshold-filtered edge set.
type Graph struct {
	nodes    []string
	index    map[string]int
	adjacent [][]neighbor
}

type neighbor struct {
	to     int
	weight float64
}

// New builds a graph keeping only edges with weight >= threshold. Every
// endpoint of an input edge becomes a node, so an endpoint whose edges all
// fall below the threshold stays as an isolated node. Node ids
// are collected and sorted before indexing, so the resulting graph's
// internal node order — and therefore every downstream canonical
// ordering — is invariant under the input edge permutation.
func New(edges []Edge, threshold float64) *Graph {
	idSet := make(map[string]struct{})
	filtered := make([]Edge, 0, len(edges))
	for _, e := range edges {
		idSet[e.A] = struct{}{}
		idSet[e.B] = struct{}{}
		if e.Weight >= threshold {
			filtered = append(filtered, e)
		}
	}

	nodes := make([]string, 0, len(idSet))
	for id := range idSet {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	index := make(map[string]int, len(nodes))
	for i, id := range nodes {
		index[id] = i
	}

	adjacent := make([][]neighbor, len(nodes))
	for _, e := range filtered {
		ai, bi := index[e.A], index[e.B]
		adjacent[ai] = append(adjacent[ai], neighbor{to: bi, weight: e.Weight})
		adjacent[bi] = append(adjacent[bi], neighbor{to: ai, weight: e.Weight})
	}
	for i := range adjacent {
		sort.Slice(adjacent[i], func(x, y int) bool { return adjacent[i][x].to < adjacent[i][y].to })
	}

	return &Graph{nodes: nodes, index: index, adjacent: adjacent}
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) EdgeCount() int {
	total := 0
	for _, adj := range g.adjacent {
		total += len(adj)
	}
	return total / 2
}

// Stats mirrors langviz-rs's GraphStats: node/edge counts, average degree,
// density, and component count.
type Stats struct {
	NumNodes      int
	NumEdges      int
	AvgDegree     float64
	Density       float64
	NumComponents int
}

func (g *Graph) Stats() Stats {
	n := g.NodeCount()
	e := g.EdgeCount()
	var avgDegree, density float64
	if n > 0 {
		avgDegree = float64(2*e) / float64(n)
	}
	if n > 1 {
		density = float64(2*e) / float64(n*(n-1))
	}
	return Stats{
		NumNodes:      n,
		NumEdges:      e,
		AvgDegree:     avgDegree,
		Density:       density,
		NumComponents: len(g.ConnectedComponents()),
	}
}
