// Package extract turns model records into graph nodes and edges.
//
// Scalars become node properties, references become edges labeled with the
// attribute name of the slot they were found in. Nothing here touches the
// store; the result is a domain.Graph handed to the materializer.
package extract

import (
	"fmt"
	"strings"

	"github.com/WessleyAI/ifcgraph/engine/domain"
	"github.com/WessleyAI/ifcgraph/engine/model"
)

// wrapperTypes are the defined types whose wrapped value is stored directly.
var wrapperTypes = []string{"IfcBoolean", "IfcLabel", "IfcText", "IfcReal"}

func isWrapper(typeName string) bool {
	for _, w := range wrapperTypes {
		if strings.EqualFold(w, typeName) {
			return true
		}
	}
	return false
}

// Normalize converts an attribute value into a storable property, or
// Unrepresentable. It never fails.
//
// Wrapper types are unwrapped. A non-empty list whose first element is a
// scalar is flattened to its elements joined with ",". Everything else that
// is not a scalar (references, nulls, other typed values, nested lists) is
// unrepresentable.
func Normalize(v model.Value) domain.PropertyValue {
	if v.Kind() == model.KindTyped && isWrapper(v.TypeName()) {
		v = v.Inner()
	}
	if items := v.List(); len(items) > 0 {
		if _, ok := items[0].Scalar(); ok {
			return domain.ListValue(flatten(items))
		}
	}
	if s, ok := v.Scalar(); ok {
		return domain.ScalarValue(s)
	}
	return domain.PropertyValue{Kind: domain.Unrepresentable}
}

// flatten joins every element's rendering with ",". Elements after the first
// are not checked for homogeneity.
func flatten(items []model.Value) string {
	parts := make([]string, len(items))
	for i, it := range items {
		if s, ok := it.Scalar(); ok {
			parts[i] = fmt.Sprint(s)
			continue
		}
		parts[i] = it.String()
	}
	return strings.Join(parts, ",")
}
