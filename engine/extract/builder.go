package extract

import (
	"context"
	"log/slog"

	"github.com/WessleyAI/ifcgraph/engine/domain"
	"github.com/WessleyAI/ifcgraph/engine/model"
)

// DefaultIgnored is the ignore list used when none is configured.
var DefaultIgnored = []string{"IfcOwnerHistory"}

// Builder walks a model once and collects its graph.
type Builder struct {
	// Ignored types produce neither nodes nor incoming edges.
	Ignored TypeSet
	// KeepEndpointTypes fills Edge.SourceType and Edge.TargetType.
	KeepEndpointTypes bool
	Logger            *slog.Logger
}

// NewBuilder returns a Builder ignoring the given types.
func NewBuilder(ignored []string, keepTypes bool, log *slog.Logger) *Builder {
	return &Builder{Ignored: NewTypeSet(ignored...), KeepEndpointTypes: keepTypes, Logger: log}
}

// Build extracts nodes and edges from every record in file order. A model
// with no node-producing records yields domain.ErrNoNodes.
func (b *Builder) Build(ctx context.Context, m *model.Model) (*domain.Graph, error) {
	log := b.Logger
	if log == nil {
		log = slog.Default()
	}
	g := &domain.Graph{}
	warn := func(id int64, slot int, err error) {
		g.Warnings++
		log.Warn("extract: slot read failed", "id", id, "slot", slot, "error", err)
	}

	for i, rec := range m.Records() {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if b.Ignored.Has(rec.TypeName()) {
			continue
		}
		g.Nodes = append(g.Nodes, domain.Node{
			ID:         rec.ID(),
			TypeName:   rec.TypeName(),
			Properties: Attributes(rec),
		})
		g.Edges = append(g.Edges, References(rec, m.Schema(), b.Ignored, b.KeepEndpointTypes, warn)...)
	}

	if len(g.Nodes) == 0 {
		return nil, domain.ErrNoNodes
	}
	log.Debug("extract: graph built", "nodes", len(g.Nodes), "edges", len(g.Edges), "warnings", g.Warnings)
	return g, nil
}
