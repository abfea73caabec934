package query

import "strconv"

// Operator is a binary predicate on float64 values.
type Operator uint8

const (
	GreaterThan Operator = iota
	LessThan
	GreaterThanOrEqual
	LessThanOrEqual
	Equal
	NotEqual

	numOperators
)

var operatorNames = [numOperators]string{
	GreaterThan:        "GreaterThan",
	LessThan:           "LessThan",
	GreaterThanOrEqual: "GreaterThanOrEqual",
	LessThanOrEqual:    "LessThanOrEqual",
	Equal:              "Equal",
	NotEqual:           "NotEqual",
}

// String returns the operator's wire name.
func (o Operator) String() string {
	if o < numOperators {
		return operatorNames[o]
	}
	return "Operator(" + strconv.Itoa(int(o)) + ")"
}

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool { return o < numOperators }

// OperatorByName resolves a wire name.
func OperatorByName(name string) (Operator, bool) {
	for i, n := range operatorNames {
		if n == name {
			return Operator(i), true
		}
	}
	return 0, false
}

// Apply evaluates value <op> against. NaN operands compare false except
// under NotEqual, matching IEEE semantics.
func (o Operator) Apply(value, against float64) bool {
	switch o {
	case GreaterThan:
		return value > against
	case LessThan:
		return value < against
	case GreaterThanOrEqual:
		return value >= against
	case LessThanOrEqual:
		return value <= against
	case Equal:
		return value == against
	case NotEqual:
		return value != against
	default:
		return false
	}
}
