package glyph

import (
	"strconv"
)

// ValueKind tags the dynamic type of an OriginalValue.
type ValueKind uint8

const (
	KindF64 ValueKind = iota
	KindU64
	KindString
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindF64:
		return "F64"
	case KindU64:
		return "U64"
	case KindString:
		return "String"
	default:
		return "ValueKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// OriginalValue is an axis value as it appeared in the source data.
//
// OriginalValue is comparable and is used directly as a map key. Two
// values are equal only if both the kind and the payload match, so
// F64(5), U64(5) and String("5") are three distinct keys.
type OriginalValue struct {
	kind ValueKind
	f    float64
	u    uint64
	s    string
}

// F64 wraps a floating point original.
func F64(v float64) OriginalValue { return OriginalValue{kind: KindF64, f: v} }

// U64 wraps an unsigned integer original.
func U64(v uint64) OriginalValue { return OriginalValue{kind: KindU64, u: v} }

// String wraps a categorical original.
func String(s string) OriginalValue { return OriginalValue{kind: KindString, s: s} }

// Kind returns the value's tag.
func (v OriginalValue) Kind() ValueKind { return v.kind }

// Float64 returns the payload of an F64 value.
func (v OriginalValue) Float64() (float64, bool) { return v.f, v.kind == KindF64 }

// Uint64 returns the payload of a U64 value.
func (v OriginalValue) Uint64() (uint64, bool) { return v.u, v.kind == KindU64 }

// Str returns the payload of a String value.
func (v OriginalValue) Str() (string, bool) { return v.s, v.kind == KindString }

// String formats the value with its kind, e.g. F64(5) or String("a").
func (v OriginalValue) String() string {
	switch v.kind {
	case KindF64:
		return "F64(" + strconv.FormatFloat(v.f, 'g', -1, 64) + ")"
	case KindU64:
		return "U64(" + strconv.FormatUint(v.u, 10) + ")"
	default:
		return "String(" + strconv.Quote(v.s) + ")"
	}
}

// less orders numbers before strings, numbers by value and strings
// lexically. F64 and U64 with the same numeric value order by kind.
func (v OriginalValue) less(o OriginalValue) bool {
	vn, on := v.kind != KindString, o.kind != KindString
	if vn != on {
		return vn
	}
	if !vn {
		return v.s < o.s
	}
	a, b := v.number(), o.number()
	if a != b {
		return a < b
	}
	return v.kind < o.kind
}

func (v OriginalValue) number() float64 {
	if v.kind == KindU64 {
		return float64(v.u)
	}
	return v.f
}
