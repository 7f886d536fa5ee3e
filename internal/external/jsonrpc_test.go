package external

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

// loopback writes a canned response on every Write, simulating a server
// that echoes back a fixed result for whatever method was called.
type loopback struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (l *loopback) Write(p []byte) (int, error) {
	var req rpcRequest
	if err := json.Unmarshal(p, &req); err != nil {
		return 0, err
	}
	resp := rpcResponse{ID: req.ID, Result: json.RawMessage(`{"newick":"(a,b);","cophenetic_correlation":0.9}`)}
	line, _ := json.Marshal(resp)
	line = append(line, '\n')
	l.out.Write(line)
	return len(p), nil
}

func (l *loopback) Read(p []byte) (int, error) {
	return l.out.Read(p)
}

func TestPhyloClient_InferTree(t *testing.T) {
	lb := &loopback{}
	conn := NewConn(lb, "phylo")
	client := NewPhyloClient(conn)

	result, err := client.InferTree(context.Background(), InferTreeParams{
		Distances: [][]float64{{0, 1}, {1, 0}},
		Labels:    []string{"en", "de"},
		Method:    "nj",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Newick != "(a,b);" {
		t.Fatalf("got %q", result.Newick)
	}
	if result.CopheneticCorrelation != 0.9 {
		t.Fatalf("got %v", result.CopheneticCorrelation)
	}
}

func TestDistanceTable_LookupCanonicalizesOrder(t *testing.T) {
	table := NewDistanceTable([]DistanceEntry{
		{LangA: "de", LangB: "en", TreeDistance: 3, Prior: 0.6},
	})

	e, ok := table.Lookup("en", "de")
	if !ok {
		t.Fatalf("expected lookup to find entry regardless of argument order")
	}
	if e.TreeDistance != 3 {
		t.Fatalf("got %d, want 3", e.TreeDistance)
	}

	if _, ok := table.Lookup("en", "fr"); ok {
		t.Fatalf("expected no entry for unrelated pair")
	}
}
