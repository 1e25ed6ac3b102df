// Package domain defines the graph produced from an IFC model: nodes, typed
// edges and the property values they carry. It is the validation gate between
// extraction and materialization.
package domain

import "fmt"

// PropertyKind classifies a normalized attribute value.
type PropertyKind int

const (
	// Unrepresentable values (references, nulls, empty or nested lists) are
	// never stored.
	Unrepresentable PropertyKind = iota
	// Scalar holds a string, bool, int64 or float64.
	Scalar
	// FlattenedList holds the comma-joined rendering of a scalar list.
	FlattenedList
)

func (k PropertyKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case FlattenedList:
		return "flattened_list"
	default:
		return "unrepresentable"
	}
}

// PropertyValue is a node property after normalization.
type PropertyValue struct {
	Kind  PropertyKind
	Value any
}

// ScalarValue returns a Scalar property.
func ScalarValue(v any) PropertyValue { return PropertyValue{Kind: Scalar, Value: v} }

// ListValue returns a FlattenedList property.
func ListValue(joined string) PropertyValue { return PropertyValue{Kind: FlattenedList, Value: joined} }

// Storable reports whether the value may be written to the store.
func (p PropertyValue) Storable() bool { return p.Kind == Scalar || p.Kind == FlattenedList }

func (p PropertyValue) String() string {
	if !p.Storable() {
		return "<unrepresentable>"
	}
	return fmt.Sprint(p.Value)
}

// Node is one record of the model.
type Node struct {
	ID         int64
	TypeName   string
	Properties map[string]PropertyValue
}

// Params renders the node's stored properties as a driver parameter map.
func (n Node) Params() map[string]any {
	out := make(map[string]any, len(n.Properties)+2)
	for k, v := range n.Properties {
		if v.Storable() {
			out[k] = v.Value
		}
	}
	return out
}

// Edge is a reference from one record's attribute to another record.
// SourceType and TargetType are filled only when endpoints are matched by
// label as well as id.
type Edge struct {
	SourceID   int64
	TargetID   int64
	Label      string
	SourceType string
	TargetType string
}

func (e Edge) String() string {
	return fmt.Sprintf("#%d-[%s]->#%d", e.SourceID, e.Label, e.TargetID)
}

// Graph is the in-memory result of extraction.
type Graph struct {
	Nodes    []Node
	Edges    []Edge
	Warnings int
}

// TypeCounts returns the number of nodes per type name.
func (g *Graph) TypeCounts() map[string]int {
	out := make(map[string]int)
	for _, n := range g.Nodes {
		out[n.TypeName]++
	}
	return out
}
