package query

import (
	"fmt"
	"math"
)

// Validate checks that every tree in q is finite and acyclic, no deeper
// than MaxDepth, and uses only known kinds, operators and finite Number
// literals. Parse always
// produces valid queries; Validate guards trees built in code.
func (q *Query) Validate() error {
	for _, n := range []*Node{q.X, q.Y, q.Z} {
		if n == nil {
			continue
		}
		if err := validateNode(n, map[*Node]bool{}, 0); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(n *Node, path map[*Node]bool, depth int) error {
	if depth > MaxDepth {
		return ErrTooDeep
	}
	if path[n] {
		return ErrCycle
	}
	switch n.Kind {
	case KindNoOp:
	case KindInclude, KindExclude:
		if !n.Clause.Operator.Valid() {
			return fmt.Errorf("query: unknown operator %s", n.Clause.Operator)
		}
		if sub := n.Clause.SubType; sub.Kind == SubValue && sub.Value.Type == ValueNumber {
			if f := sub.Value.Number; math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: %v", ErrNotFinite, f)
			}
		}
	case KindAnd, KindOr:
		path[n] = true
		for i := range n.Children {
			if err := validateNode(&n.Children[i], path, depth+1); err != nil {
				return err
			}
		}
		delete(path, n)
	default:
		return fmt.Errorf("query: unknown node kind %s", n.Kind)
	}
	return nil
}
