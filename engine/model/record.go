package model

import (
	"fmt"

	"github.com/WessleyAI/ifcgraph/engine/step"
)

// Record is one entity instance.
type Record struct {
	m        *Model
	inst     step.Instance
	typeName string
	known    bool
}

// ID returns the instance id (#n).
func (r *Record) ID() int64 { return r.inst.ID }

// TypeName returns the canonical type name (IfcWall), or the file spelling
// when the schema does not declare the type.
func (r *Record) TypeName() string { return r.typeName }

// Known reports whether the schema declares the record's type.
func (r *Record) Known() bool { return r.known }

// Line returns the source line of the instance.
func (r *Record) Line() int { return r.inst.Line }

// Len returns the number of slots: the declared attribute count, or the
// parameter count when the file carries more parameters than the schema
// declares (or the type is undeclared).
func (r *Record) Len() int {
	n := len(r.inst.Params)
	if r.known {
		if names, err := r.m.schema.AttributeNames(r.typeName); err == nil && len(names) > n {
			n = len(names)
		}
	}
	return n
}

// Slot returns the value at position i. A direct reference to a missing
// instance yields ErrEntityNotFound; a position past the parameters written in
// the file yields ErrSlotOutOfRange.
func (r *Record) Slot(i int) (Value, error) {
	if i < 0 || i >= len(r.inst.Params) {
		return Value{}, fmt.Errorf("%w: #%d %s slot %d of %d", ErrSlotOutOfRange, r.ID(), r.typeName, i, len(r.inst.Params))
	}
	p := r.inst.Params[i]
	if p.Kind == step.KindRef {
		target, ok := r.m.byID[p.Ref]
		if !ok {
			return Value{}, fmt.Errorf("%w: #%d", ErrEntityNotFound, p.Ref)
		}
		return RecordValue(target), nil
	}
	return r.convert(p), nil
}

// Attributes returns every named attribute plus "id" and "type". Dangling
// references read as null.
func (r *Record) Attributes() (map[string]Value, error) {
	if !r.known {
		return nil, fmt.Errorf("%w: %s", ErrSchemaUnavailable, r.typeName)
	}
	names, err := r.m.schema.AttributeNames(r.typeName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)
	}
	out := make(map[string]Value, len(names)+2)
	out["id"] = IntValue(r.ID())
	out["type"] = StringValue(r.typeName)
	for i, name := range names {
		if i >= len(r.inst.Params) {
			out[name] = NullValue()
			continue
		}
		out[name] = r.convert(r.inst.Params[i])
	}
	return out, nil
}

func (r *Record) convert(p step.Value) Value {
	switch p.Kind {
	case step.KindInteger:
		return IntValue(p.Int)
	case step.KindReal:
		return FloatValue(p.Real)
	case step.KindString, step.KindBinary:
		return StringValue(p.Str)
	case step.KindEnum:
		switch p.Str {
		case "T":
			return BoolValue(true)
		case "F":
			return BoolValue(false)
		case "U":
			return StringValue("UNKNOWN")
		}
		return StringValue(p.Str)
	case step.KindRef:
		if target, ok := r.m.byID[p.Ref]; ok {
			return RecordValue(target)
		}
		return NullValue()
	case step.KindList:
		items := make([]Value, len(p.List))
		for i, e := range p.List {
			items[i] = r.convert(e)
		}
		return ListValue(items...)
	case step.KindTyped:
		var inner Value
		switch len(p.List) {
		case 0:
			inner = NullValue()
		case 1:
			inner = r.convert(p.List[0])
		default:
			inner = r.convert(step.List(p.List...))
		}
		return TypedValue(r.definedTypeName(p.Str), inner)
	}
	return NullValue()
}

// definedTypeName spells a typed-parameter keyword the way the schema does
// (IFCLABEL -> IfcLabel). Undeclared keywords keep the file spelling.
func (r *Record) definedTypeName(keyword string) string {
	if name, ok := r.m.schema.CanonicalType(keyword); ok {
		return name
	}
	return keyword
}
