package extract

import "github.com/WessleyAI/ifcgraph/engine/model"

// Shape is the structural class of a slot value as far as edges are concerned.
type Shape int

const (
	// ScalarValue slots never produce edges.
	ScalarValue Shape = iota
	// RecordReference is a direct reference to one record.
	RecordReference
	// RecordCollection is a list with at least one record among its
	// first-level elements.
	RecordCollection
	// OpaqueCollection is a list with no record at the first level.
	OpaqueCollection
)

func (s Shape) String() string {
	switch s {
	case RecordReference:
		return "record_reference"
	case RecordCollection:
		return "record_collection"
	case OpaqueCollection:
		return "opaque_collection"
	default:
		return "scalar_value"
	}
}

// Classified is a slot value with its shape and the records it points at.
type Classified struct {
	Shape   Shape
	Records []*model.Record
}

// Classify inspects v. Nested lists are not descended into.
func Classify(v model.Value) Classified {
	switch v.Kind() {
	case model.KindRecord:
		if r := v.Record(); r != nil {
			return Classified{Shape: RecordReference, Records: []*model.Record{r}}
		}
	case model.KindList:
		var recs []*model.Record
		for _, it := range v.List() {
			if r := it.Record(); r != nil {
				recs = append(recs, r)
			}
		}
		if len(recs) > 0 {
			return Classified{Shape: RecordCollection, Records: recs}
		}
		return Classified{Shape: OpaqueCollection}
	}
	return Classified{Shape: ScalarValue}
}
