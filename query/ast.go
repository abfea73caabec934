package query

import (
	"strconv"

	"github.com/gogpu/glyphfield/glyph"
)

// Kind is the node type of a filter tree.
type Kind uint8

const (
	KindNoOp Kind = iota
	KindInclude
	KindExclude
	KindAnd
	KindOr
)

var kindNames = [...]string{
	KindNoOp:    "no_op",
	KindInclude: "include",
	KindExclude: "exclude",
	KindAnd:     "and",
	KindOr:      "or",
}

// String returns the wire key of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Node is one filter tree node. Clause is used by Include and Exclude,
// Children by And and Or. Trees are plain values; a Node never refers to
// one of its ancestors (see Validate).
type Node struct {
	Kind     Kind
	Clause   Clause
	Children []Node
}

// Clause pairs a comparison value with an operator.
type Clause struct {
	SubType  SubType
	Operator Operator
}

// SubTypeKind selects between a literal value and a named statistic.
type SubTypeKind uint8

const (
	SubValue SubTypeKind = iota
	SubStatistic
)

// SubType is the right-hand side of a comparison.
type SubType struct {
	Kind      SubTypeKind
	Value     ComparisonValue
	Statistic string
}

// ValueType tags a ComparisonValue.
type ValueType uint8

const (
	ValueNumber ValueType = iota
	ValueInteger
	ValueString
)

var valueTypeNames = [...]string{
	ValueNumber:  "Number",
	ValueInteger: "Integer",
	ValueString:  "String",
}

// String returns the wire name of the value type.
func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "ValueType(" + strconv.Itoa(int(t)) + ")"
}

// ComparisonValue is a typed literal. Only the field matching Type is used.
type ComparisonValue struct {
	Type    ValueType
	Number  float64
	Integer uint64
	String  string
}

// Original converts the literal to the vector table key of the same kind.
func (v ComparisonValue) Original() glyph.OriginalValue {
	switch v.Type {
	case ValueInteger:
		return glyph.U64(v.Integer)
	case ValueString:
		return glyph.String(v.String)
	default:
		return glyph.F64(v.Number)
	}
}

// Query is a complete filter: one optional tree per axis. A nil slot
// behaves as NoOp.
type Query struct {
	X *Node
	Y *Node
	Z *Node
}

// Slot returns the tree for an axis, or nil.
func (q *Query) Slot(a glyph.Axis) *Node {
	if q == nil {
		return nil
	}
	switch a {
	case glyph.AxisX:
		return q.X
	case glyph.AxisY:
		return q.Y
	default:
		return q.Z
	}
}

// SetSlot replaces the tree for an axis.
func (q *Query) SetSlot(a glyph.Axis, n *Node) {
	switch a {
	case glyph.AxisX:
		q.X = n
	case glyph.AxisY:
		q.Y = n
	default:
		q.Z = n
	}
}

// NoOp matches every record.
func NoOp() Node { return Node{Kind: KindNoOp} }

// Include passes when value <op> sub holds.
func Include(sub SubType, op Operator) Node {
	return Node{Kind: KindInclude, Clause: Clause{SubType: sub, Operator: op}}
}

// Exclude passes when value <op> sub does not hold.
func Exclude(sub SubType, op Operator) Node {
	return Node{Kind: KindExclude, Clause: Clause{SubType: sub, Operator: op}}
}

// And passes when every child passes. An empty And passes.
func And(children ...Node) Node { return Node{Kind: KindAnd, Children: children} }

// Or passes when some child passes. An empty Or fails.
func Or(children ...Node) Node { return Node{Kind: KindOr, Children: children} }

// Number is a floating point literal.
func Number(f float64) SubType {
	return SubType{Kind: SubValue, Value: ComparisonValue{Type: ValueNumber, Number: f}}
}

// Integer is an unsigned integer literal.
func Integer(u uint64) SubType {
	return SubType{Kind: SubValue, Value: ComparisonValue{Type: ValueInteger, Integer: u}}
}

// Text is a string literal.
func Text(s string) SubType {
	return SubType{Kind: SubValue, Value: ComparisonValue{Type: ValueString, String: s}}
}

// Statistic refers to a named axis statistic such as "mean" or "pct_25".
func Statistic(name string) SubType {
	return SubType{Kind: SubStatistic, Statistic: name}
}

// Ptr returns a pointer to a copy of n, for filling Query slots.
func Ptr(n Node) *Node { return &n }

// Equal reports whether two queries are structurally equal. A nil slot
// and a NoOp slot are different; nil and empty child lists are equal.
func (q *Query) Equal(o *Query) bool {
	if q == nil || o == nil {
		return q == o
	}
	return nodePtrEqual(q.X, o.X) && nodePtrEqual(q.Y, o.Y) && nodePtrEqual(q.Z, o.Z)
}

func nodePtrEqual(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

// Equal reports whether two trees are structurally equal.
func (n *Node) Equal(o *Node) bool {
	if n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case KindInclude, KindExclude:
		return n.Clause == o.Clause
	case KindAnd, KindOr:
		if len(n.Children) != len(o.Children) {
			return false
		}
		for i := range n.Children {
			if !n.Children[i].Equal(&o.Children[i]) {
				return false
			}
		}
	}
	return true
}
