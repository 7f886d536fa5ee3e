package graphkernel

import "sort"

const maxCommunityPasses = 10

// Community is a group of node ids detected by greedy modularity
// optimization.
type Community struct {
	ID      int
	Members []string
}

// DetectCommunities runs a single-level greedy modularity optimization
// (Louvain local-moving phase): each node starts in its own community,
// and nodes are repeatedly reassigned to the neighboring community that
// maximizes modularity gain until no move improves modularity or
// maxCommunityPasses is reached. Nodes are visited in ascending node-id
// order each pass, and a node only moves for a strictly positive gain,
// with ties broken toward the lower community id — both choices needed
// to make the result reproducible across runs regardless of map
// iteration order.
func (g *Graph) DetectCommunities() []Community {
	n := g.NodeCount()
	if n == 0 {
		return nil
	}

	community := make([]int, n)
	for i := range community {
		community[i] = i
	}

	degree := make([]float64, n)
	totalWeight := 0.0
	for i, adj := range g.adjacent {
		for _, nb := range adj {
			degree[i] += nb.weight
			totalWeight += nb.weight
		}
	}
	totalWeight /= 2
	if totalWeight == 0 {
		return g.singletonCommunities()
	}

	commTotalDegree := make([]float64, n)
	copy(commTotalDegree, degree)

	for pass := 0; pass < maxCommunityPasses; pass++ {
		moved := false

		for node := 0; node < n; node++ {
			currentComm := community[node]

			neighborWeight := make(map[int]float64)
			for _, nb := range g.adjacent[node] {
				neighborWeight[community[nb.to]] += nb.weight
			}

			commTotalDegree[currentComm] -= degree[node]

			bestComm := currentComm
			bestGain := 0.0

			candidates := make([]int, 0, len(neighborWeight))
			for c := range neighborWeight {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)

			for _, c := range candidates {
				gain := neighborWeight[c] - commTotalDegree[c]*degree[node]/(2*totalWeight)
				if gain > bestGain || (gain == bestGain && gain > 0 && c < bestComm) {
					bestGain = gain
					bestComm = c
				}
			}

			commTotalDegree[bestComm] += degree[node]
			if bestComm != currentComm {
				community[node] = bestComm
				moved = true
			}
		}

		if !moved {
			break
		}
	}

	groups := make(map[int][]string)
	for i, c := range community {
		groups[c] = append(groups[c], g.nodes[i])
	}

	ids := make([]int, 0, len(groups))
	for c := range groups {
		ids = append(ids, c)
	}
	sort.Ints(ids)

	communities := make([]Community, 0, len(ids))
	for rank, c := range ids {
		members := groups[c]
		sort.Strings(members)
		communities = append(communities, Community{ID: rank, Members: members})
	}
	return communities
}

func (g *Graph) singletonCommunities() []Community {
	communities := make([]Community, len(g.nodes))
	for i, id := range g.nodes {
		communities[i] = Community{ID: i, Members: []string{id}}
	}
	return communities
}
