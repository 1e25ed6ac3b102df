// Package step reads ISO 10303-21 exchange files ("STEP physical files"), the
// plain-text encoding used by IFC models.
package step

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull    Kind = iota // $
	KindDerived             // *
	KindInteger
	KindReal
	KindString
	KindEnum   // .NAME.
	KindBinary // "0A3F"
	KindRef    // #123
	KindList   // ( ... )
	KindTyped  // IFCLABEL('x')
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindDerived:
		return "derived"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindBinary:
		return "binary"
	case KindRef:
		return "ref"
	case KindList:
		return "list"
	case KindTyped:
		return "typed"
	default:
		return "unknown"
	}
}

// Value is one parameter of an entity instance.
//
// Str holds the decoded text of strings, the name of enumerations (without the
// surrounding dots), the hex digits of binaries and the type keyword of typed
// parameters. List holds list elements, or the parameters of a typed value.
type Value struct {
	Kind Kind
	Int  int64
	Real float64
	Str  string
	Ref  int64
	List []Value
}

// Null returns the $ value.
func Null() Value { return Value{Kind: KindNull} }

// Integer returns an integer value.
func Integer(v int64) Value { return Value{Kind: KindInteger, Int: v} }

// Real returns a real value.
func Real(v float64) Value { return Value{Kind: KindReal, Real: v} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Enum returns an enumeration value.
func Enum(name string) Value { return Value{Kind: KindEnum, Str: name} }

// Ref returns an instance reference.
func Ref(id int64) Value { return Value{Kind: KindRef, Ref: id} }

// List returns an aggregate value.
func List(items ...Value) Value { return Value{Kind: KindList, List: items} }

// Typed returns a typed parameter such as IFCLABEL('x').
func Typed(keyword string, params ...Value) Value {
	return Value{Kind: KindTyped, Str: keyword, List: params}
}

// String renders the value back in exchange-file notation. Strings are not
// re-encoded, so the output is for diagnostics only.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "$"
	case KindDerived:
		return "*"
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindReal:
		return strconv.FormatFloat(v.Real, 'G', -1, 64)
	case KindString:
		return "'" + v.Str + "'"
	case KindEnum:
		return "." + v.Str + "."
	case KindBinary:
		return `"` + v.Str + `"`
	case KindRef:
		return fmt.Sprintf("#%d", v.Ref)
	case KindList:
		return "(" + joinValues(v.List) + ")"
	case KindTyped:
		return v.Str + "(" + joinValues(v.List) + ")"
	default:
		return "?"
	}
}

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ",")
}

// Instance is one "#id=TYPE(...);" line of the DATA section.
type Instance struct {
	ID     int64
	Type   string
	Params []Value
	Line   int
}
