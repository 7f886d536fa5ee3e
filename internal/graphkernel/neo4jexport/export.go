// Package neo4jexport writes a computed cognate graph (graphkernel.Graph
// plus its derived components, communities, and PageRank scores) out to
// Neo4j, grounded on internal/data/graph's concept-graph sync: same
// best-effort schema setup, same UNWIND/MERGE batch-write shape, same
// nil-client soft-disable.
package neo4jexport

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/neurobridge-backend/internal/graphkernel"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/neo4jdb"
)

// Snapshot is the set of computed graph artifacts for one analysis run,
// keyed by a runID so successive runs don't collide in the same database.
type Snapshot struct {
	RunID      string
	Edges      []graphkernel.Edge
	Components []graphkernel.Component
	Communities []graphkernel.Community
	PageRank   map[string]float64
}

// Export upserts a cognate graph snapshot into Neo4j: one :Entry node per
// graph node carrying its component id, community id, and PageRank score,
// and one :COGNATE_WITH relationship per similarity edge. A nil client
// (Neo4j not configured) is a no-op, matching neo4jdb.NewFromEnv's
// soft-disable when NEO4J_URI is unset.
func Export(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, snap Snapshot) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if snap.RunID == "" {
		return fmt.Errorf("neo4jexport: missing RunID")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	componentOf := make(map[string]string, len(snap.Components))
	for _, c := range snap.Components {
		for _, id := range c.Members {
			componentOf[id] = c.ID
		}
	}
	communityOf := make(map[string]int, len(snap.Communities))
	for _, c := range snap.Communities {
		for _, id := range c.Members {
			communityOf[id] = c.ID
		}
	}

	nodeSet := make(map[string]struct{})
	for _, e := range snap.Edges {
		nodeSet[e.A] = struct{}{}
		nodeSet[e.B] = struct{}{}
	}
	for id := range componentOf {
		nodeSet[id] = struct{}{}
	}

	nodes := make([]map[string]any, 0, len(nodeSet))
	for id := range nodeSet {
		nodes = append(nodes, map[string]any{
			"id":           id,
			"component_id": componentOf[id],
			"community_id": int64(communityOf[id]),
			"pagerank":     snap.PageRank[id],
			"run_id":       snap.RunID,
			"synced_at":    now,
		})
	}

	rels := make([]map[string]any, 0, len(snap.Edges))
	for _, e := range snap.Edges {
		rels = append(rels, map[string]any{
			"a":         e.A,
			"b":         e.B,
			"weight":    e.Weight,
			"run_id":    snap.RunID,
			"synced_at": now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	if res, err := session.Run(ctx, `CREATE CONSTRAINT entry_id_unique IF NOT EXISTS FOR (e:Entry) REQUIRE e.id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}
	if res, err := session.Run(ctx, `CREATE INDEX entry_component_idx IF NOT EXISTS FOR (e:Entry) ON (e.component_id)`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (e:Entry {id: n.id})
SET e += n
`, map[string]any{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:Entry {id: r.a})
MATCH (b:Entry {id: r.b})
MERGE (a)-[c:COGNATE_WITH]->(b)
SET c.weight = r.weight,
    c.run_id = r.run_id,
    c.synced_at = r.synced_at
`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4jexport: write snapshot: %w", err)
	}
	return nil
}
