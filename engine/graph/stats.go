package graph

import (
	"context"
	"fmt"
)

// Stats summarizes what the store holds after a run.
type Stats struct {
	Nodes         map[string]int64 `json:"nodes"`
	Relationships map[string]int64 `json:"relationships"`
	Classes       map[string]int64 `json:"classes,omitempty"`
}

// Total returns the number of nodes and relationships across all groups.
func (s Stats) Total() (nodes, rels int64) {
	for _, c := range s.Nodes {
		nodes += c
	}
	for _, c := range s.Relationships {
		rels += c
	}
	return nodes, rels
}

// NodeCounts returns node counts grouped by first label.
func (g *GraphStore) NodeCounts(ctx context.Context) (map[string]int64, error) {
	return g.countBy(ctx, `MATCH (n) RETURN labels(n)[0] AS type, count(*) AS count`)
}

// RelationshipCounts returns relationship counts grouped by type.
func (g *GraphStore) RelationshipCounts(ctx context.Context) (map[string]int64, error) {
	return g.countBy(ctx, `MATCH ()-[r]->() RETURN type(r) AS type, count(*) AS count`)
}

// ClassCounts returns uniform-strategy node counts grouped by ClassName.
func (g *GraphStore) ClassCounts(ctx context.Context) (map[string]int64, error) {
	return g.countBy(ctx, `MATCH (n:`+UniformLabel+`) RETURN n.ClassName AS type, count(*) AS count`)
}

// Stats collects node and relationship counts. Classes is only filled for
// the uniform strategy, where every node shares one label.
func (g *GraphStore) Stats(ctx context.Context, s Strategy) (Stats, error) {
	var st Stats
	var err error
	if st.Nodes, err = g.NodeCounts(ctx); err != nil {
		return st, fmt.Errorf("graph: node counts: %w", err)
	}
	if st.Relationships, err = g.RelationshipCounts(ctx); err != nil {
		return st, fmt.Errorf("graph: relationship counts: %w", err)
	}
	if s == StrategyUniform {
		if st.Classes, err = g.ClassCounts(ctx); err != nil {
			return st, fmt.Errorf("graph: class counts: %w", err)
		}
	}
	return st, nil
}

func (g *GraphStore) countBy(ctx context.Context, cypher string) (map[string]int64, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for result.Next(ctx) {
		rec := result.Record()
		typ, _ := rec.Get("type")
		cnt, _ := rec.Get("count")
		if t, ok := typ.(string); ok {
			if c, ok := cnt.(int64); ok {
				counts[t] = c
			}
		}
	}
	return counts, result.Err()
}
