package graph

import (
	"context"

	"github.com/WessleyAI/ifcgraph/engine/domain"
)

// Uniform writes every node as IfcNode with a ClassName property. Each
// statement is an auto-commit run on the session.
type Uniform struct {
	opts options
}

func (u *Uniform) Strategy() Strategy { return StrategyUniform }

// Materialize clears the store, creates the nodes, ensures the nid index and
// creates the edges, in that order.
func (u *Uniform) Materialize(ctx context.Context, sess CypherSession, g *domain.Graph) (Report, error) {
	r := newRun(StrategyUniform, u.opts)
	autoCommit := func(op, cypher string, params map[string]any) error {
		return r.exec(ctx, op, func(ctx context.Context) error {
			return runStatement(ctx, sess, cypher, params)
		})
	}

	if err := autoCommit("clear", clearCypher, nil); err != nil {
		return r.report, err
	}
	r.advance(PhaseCleared)

	for _, n := range g.Nodes {
		props := nodeProps(n)
		props["ClassName"] = n.TypeName
		if err := autoCommit("create_node", uniformNodeCypher, map[string]any{"props": props}); err != nil {
			return r.report, err
		}
		r.report.Nodes++
	}
	if err := autoCommit("create_index", uniformIndexCypher, nil); err != nil {
		return r.report, err
	}
	r.advance(PhaseNodesWritten)

	for _, e := range g.Edges {
		params := map[string]any{"id1": e.SourceID, "id2": e.TargetID}
		if err := autoCommit("create_edge", uniformEdgeCypher(e.Label), params); err != nil {
			return r.report, err
		}
		r.report.Edges++
	}
	r.advance(PhaseEdgesWritten)

	return r.done(), nil
}
