package model

import (
	"fmt"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindBool
	KindInt
	KindFloat
	KindRecord
	KindList
	KindTyped
)

var kindNames = [...]string{"null", "string", "bool", "int", "float", "record", "list", "typed"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is an attribute value read from a record slot.
type Value struct {
	kind     Kind
	str      string
	b        bool
	i        int64
	f        float64
	rec      *Record
	list     []Value
	typeName string
	inner    *Value
}

// Constructors, used by tests and by the record reader.

func NullValue() Value { return Value{} }
func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func RecordValue(r *Record) Value { return Value{kind: KindRecord, rec: r} }
func ListValue(vs ...Value) Value { return Value{kind: KindList, list: vs} }

// TypedValue wraps inner in a defined type such as IfcLabel.
func TypedValue(typeName string, inner Value) Value {
	return Value{kind: KindTyped, typeName: typeName, inner: &inner}
}

func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the slot was unset ($) or derived (*).
func (v Value) IsNull() bool { return v.kind == KindNull }

// Scalar returns the Go value of a string, bool, int or float Value.
func (v Value) Scalar() (any, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindBool:
		return v.b, true
	case KindInt:
		return v.i, true
	case KindFloat:
		return v.f, true
	}
	return nil, false
}

// Record returns the referenced record, or nil for other kinds.
func (v Value) Record() *Record {
	if v.kind != KindRecord {
		return nil
	}
	return v.rec
}

// List returns the elements of a list value.
func (v Value) List() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// TypeName returns the defined type of a typed value.
func (v Value) TypeName() string { return v.typeName }

// Inner returns the wrapped value of a typed value, or v itself.
func (v Value) Inner() Value {
	if v.kind != KindTyped || v.inner == nil {
		return v
	}
	return *v.inner
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindBool, KindInt, KindFloat:
		s, _ := v.Scalar()
		return fmt.Sprint(s)
	case KindRecord:
		if v.rec == nil {
			return "#?"
		}
		return fmt.Sprintf("#%d=%s", v.rec.ID(), v.rec.TypeName())
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindTyped:
		return v.typeName + "(" + v.Inner().String() + ")"
	}
	return "?"
}
