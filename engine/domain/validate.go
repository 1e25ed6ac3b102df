package domain

import (
	"fmt"
	"strconv"
)

// ExcludedKeys are attribute names never stored as node properties.
var ExcludedKeys = map[string]bool{
	"type":         true,
	"id":           true,
	"OwnerHistory": true,
}

// ReservedKeys are written by the materializer and may not appear among a
// node's own properties.
var ReservedKeys = map[string]bool{
	"nid":       true,
	"ClassName": true,
}

// ValidateNode checks a node before it is written.
func ValidateNode(n Node) error {
	if n.ID < 0 {
		return NewValidationError("id", strconv.FormatInt(n.ID, 10), ErrInvalidNode)
	}
	if n.TypeName == "" {
		return NewValidationError("type", fmt.Sprintf("#%d", n.ID), ErrInvalidNode)
	}
	for k, v := range n.Properties {
		if ExcludedKeys[k] || ReservedKeys[k] {
			return NewValidationError("property", k, ErrReservedProp)
		}
		if !v.Storable() {
			return NewValidationError("property", k, ErrInvalidNode)
		}
	}
	return nil
}

// ValidateEdge checks an edge. When typed is set both endpoint types must be
// present, since endpoints are then matched by label.
func ValidateEdge(e Edge, typed bool) error {
	if e.TargetID == 0 {
		return NewValidationError("target", e.String(), ErrInvalidEdge)
	}
	if e.SourceID < 0 || e.TargetID < 0 {
		return NewValidationError("source", e.String(), ErrInvalidEdge)
	}
	if e.Label == "" {
		return NewValidationError("label", e.String(), ErrInvalidEdge)
	}
	if typed && (e.SourceType == "" || e.TargetType == "") {
		return NewValidationError("endpoint_type", e.String(), ErrInvalidEdge)
	}
	return nil
}

// ValidateGraph checks the whole graph: it must have nodes, and every node
// and edge must be valid. An empty graph yields ErrNoNodes.
func ValidateGraph(g *Graph, typed bool) error {
	if g == nil || len(g.Nodes) == 0 {
		return ErrNoNodes
	}
	for _, n := range g.Nodes {
		if err := ValidateNode(n); err != nil {
			return err
		}
	}
	for _, e := range g.Edges {
		if err := ValidateEdge(e, typed); err != nil {
			return err
		}
	}
	return nil
}
