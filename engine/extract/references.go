package extract

import (
	"errors"
	"strings"

	"github.com/WessleyAI/ifcgraph/engine/domain"
	"github.com/WessleyAI/ifcgraph/engine/model"
	"github.com/WessleyAI/ifcgraph/engine/schema"
)

// TypeSet is a case-insensitive set of entity type names.
type TypeSet map[string]struct{}

// NewTypeSet builds a set from names. Blank names are dropped.
func NewTypeSet(names ...string) TypeSet {
	s := make(TypeSet, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s[strings.ToUpper(n)] = struct{}{}
		}
	}
	return s
}

// Has reports whether typeName is in the set.
func (s TypeSet) Has(typeName string) bool {
	_, ok := s[strings.ToUpper(typeName)]
	return ok
}

// WarnFunc receives unexpected slot read faults.
type WarnFunc func(id int64, slot int, err error)

// References returns one edge per record reachable from rec's slots, directly
// or as a first-level collection element. Targets of an ignored type and the
// id 0 sentinel are skipped. Slots that fail with model.ErrEntityNotFound are
// skipped silently; other read faults go to warn (if non-nil) and are skipped.
func References(rec *model.Record, sch *schema.Schema, ignored TypeSet, withTypes bool, warn WarnFunc) []domain.Edge {
	var edges []domain.Edge
	for i := 0; i < rec.Len(); i++ {
		v, err := rec.Slot(i)
		if err != nil {
			if !errors.Is(err, model.ErrEntityNotFound) && warn != nil {
				warn(rec.ID(), i, err)
			}
			continue
		}
		c := Classify(v)
		if c.Shape != RecordReference && c.Shape != RecordCollection {
			continue
		}
		label := sch.AttributeName(rec.TypeName(), i)
		for _, target := range c.Records {
			if target.ID() == 0 || ignored.Has(target.TypeName()) {
				continue
			}
			e := domain.Edge{SourceID: rec.ID(), TargetID: target.ID(), Label: label}
			if withTypes {
				e.SourceType = rec.TypeName()
				e.TargetType = target.TypeName()
			}
			edges = append(edges, e)
		}
	}
	return edges
}
