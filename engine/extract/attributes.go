package extract

import (
	"github.com/WessleyAI/ifcgraph/engine/domain"
	"github.com/WessleyAI/ifcgraph/engine/model"
)

// Attributes returns the storable properties of rec. A record whose
// attributes cannot be read gets an empty set.
func Attributes(rec *model.Record) map[string]domain.PropertyValue {
	out := make(map[string]domain.PropertyValue)
	attrs, err := rec.Attributes()
	if err != nil {
		return out
	}
	for name, v := range attrs {
		if domain.ExcludedKeys[name] {
			continue
		}
		if p := Normalize(v); p.Storable() {
			out[name] = p
		}
	}
	return out
}
