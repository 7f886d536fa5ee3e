package external

import "context"

// PhyloClient binds the phylogenetic service's three methods, per
// spec.md §6.
type PhyloClient struct {
	conn *Conn
}

func NewPhyloClient(conn *Conn) *PhyloClient {
	return &PhyloClient{conn: conn}
}

type InferTreeParams struct {
	Distances [][]float64 `json:"distances"`
	Labels    []string    `json:"labels"`
	Method    string      `json:"method"`
}

type InferTreeResult struct {
	Newick                 string  `json:"newick"`
	CopheneticCorrelation float64 `json:"cophenetic_correlation"`
}

func (c *PhyloClient) InferTree(ctx context.Context, p InferTreeParams) (InferTreeResult, error) {
	var out InferTreeResult
	err := c.conn.Call(ctx, "infer_tree", p, &out)
	return out, err
}

type BootstrapTreeParams struct {
	Distances [][]float64 `json:"distances"`
	Labels    []string    `json:"labels"`
	N         int         `json:"n"`
}

type BootstrapTreeResult struct {
	ConsensusNewick string    `json:"consensus_newick"`
	SupportValues   []float64 `json:"support_values"`
}

func (c *PhyloClient) BootstrapTree(ctx context.Context, p BootstrapTreeParams) (BootstrapTreeResult, error) {
	var out BootstrapTreeResult
	err := c.conn.Call(ctx, "bootstrap_tree", p, &out)
	return out, err
}

type ClusterHierarchicalParams struct {
	Distances [][]float64 `json:"distances"`
	Labels    []string    `json:"labels"`
	Method    string      `json:"method"`
}

type ClusterHierarchicalResult struct {
	Merge  [][]int   `json:"merge"`
	Height []float64 `json:"height"`
	Order  []int     `json:"order"`
}

func (c *PhyloClient) ClusterHierarchical(ctx context.Context, p ClusterHierarchicalParams) (ClusterHierarchicalResult, error) {
	var out ClusterHierarchicalResult
	err := c.conn.Call(ctx, "cluster_hierarchical", p, &out)
	return out, err
}

// DistanceEntry is one row of the at-rest phylogenetic distance table,
// produced offline by the phylogenetic service: (lang_a, lang_b,
// tree_distance, prior), with lang_a < lang_b per spec.md §6.
type DistanceEntry struct {
	LangA        string  `json:"lang_a"`
	LangB        string  `json:"lang_b"`
	TreeDistance int     `json:"tree_distance"`
	Prior        float64 `json:"prior"`
}

// DistanceTable is an in-memory lookup for the precomputed table the
// Similarity Composer (C11) consults for the etymological component.
type DistanceTable struct {
	byPair map[string]DistanceEntry
}

func NewDistanceTable(entries []DistanceEntry) *DistanceTable {
	t := &DistanceTable{byPair: make(map[string]DistanceEntry, len(entries))}
	for _, e := range entries {
		a, b := e.LangA, e.LangB
		if b < a {
			a, b = b, a
		}
		t.byPair[a+"|"+b] = e
	}
	return t
}

// Lookup returns the prior for a language pair, or ok=false when the
// pair has no entry in the table (the Similarity Composer treats this
// as "no etymological prior available").
func (t *DistanceTable) Lookup(langA, langB string) (DistanceEntry, bool) {
	a, b := langA, langB
	if b < a {
		a, b = b, a
	}
	e, ok := t.byPair[a+"|"+b]
	return e, ok
}
