package graph

import (
	"context"

	"github.com/WessleyAI/ifcgraph/engine/domain"
)

// PerClass labels each node with its type name. Each statement runs in its
// own managed write transaction. No index is created.
type PerClass struct {
	opts options
}

func (p *PerClass) Strategy() Strategy { return StrategyPerClass }

// Materialize clears the store, creates the nodes, then the edges. Edges
// must carry both endpoint types.
func (p *PerClass) Materialize(ctx context.Context, sess CypherSession, g *domain.Graph) (Report, error) {
	r := newRun(StrategyPerClass, p.opts)

	write := func(op, cypher string, params map[string]any) error {
		return r.exec(ctx, op, func(ctx context.Context) error {
			_, err := sess.ExecuteWrite(ctx, func(tx CypherRunner) (any, error) {
				return nil, runStatement(ctx, tx, cypher, params)
			})
			return err
		})
	}

	if err := write("clear", clearCypher, nil); err != nil {
		return r.report, err
	}
	r.advance(PhaseCleared)

	for _, n := range g.Nodes {
		if err := write("create_node", perClassNodeCypher(n.TypeName), map[string]any{"props": nodeProps(n)}); err != nil {
			return r.report, err
		}
		r.report.Nodes++
	}
	r.advance(PhaseNodesWritten)

	for _, e := range g.Edges {
		if e.SourceType == "" || e.TargetType == "" {
			return r.report, r.fail("create_edge", domain.NewValidationError("endpoint_type", e.String(), domain.ErrInvalidEdge))
		}
		params := map[string]any{"id1": e.SourceID, "id2": e.TargetID}
		if err := write("create_edge", perClassEdgeCypher(e.SourceType, e.TargetType, e.Label), params); err != nil {
			return r.report, err
		}
		r.report.Edges++
	}
	r.advance(PhaseEdgesWritten)

	return r.done(), nil
}
