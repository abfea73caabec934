package query

import (
	"github.com/gogpu/glyphfield/glyph"
	"github.com/gogpu/glyphfield/internal/parallel"
)

// Source supplies the per-axis lookup data a query resolves against.
// *glyph.Store implements it.
type Source interface {
	Vectors(glyph.Axis) *glyph.VectorTable
	Stats(glyph.Axis) *glyph.Stats
}

// parallelThreshold is the record count above which Filter splits work
// across the shared worker pool.
const parallelThreshold = 8192

// Program is a query bound to a Source. Comparison values are resolved
// once at Compile time, so a Program must be recompiled when the source
// dataset is replaced.
type Program struct {
	slots [3]*compiled
}

type compiled struct {
	kind     Kind
	op       Operator
	against  float64
	resolved bool
	children []compiled
}

// Compile validates q and resolves its comparison values against src.
// A nil query compiles to a program that matches everything.
func Compile(q *Query, src Source) (*Program, error) {
	p := &Program{}
	if q == nil {
		return p, nil
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	for _, a := range glyph.Axes {
		n := q.Slot(a)
		if n == nil {
			continue
		}
		c := compileNode(n, a, src)
		p.slots[a] = &c
	}
	return p, nil
}

func compileNode(n *Node, a glyph.Axis, src Source) compiled {
	c := compiled{kind: n.Kind}
	switch n.Kind {
	case KindInclude, KindExclude:
		c.op = n.Clause.Operator
		c.against, c.resolved = resolve(n.Clause.SubType, a, src)
	case KindAnd, KindOr:
		c.children = make([]compiled, len(n.Children))
		for i := range n.Children {
			c.children[i] = compileNode(&n.Children[i], a, src)
		}
	}
	return c
}

// resolve turns a SubType into the value compared against. Literals on a
// ranked axis go through its vector table; on Y, numeric literals are
// used directly and strings never resolve. Statistics come from the
// axis stats.
func resolve(sub SubType, a glyph.Axis, src Source) (float64, bool) {
	switch sub.Kind {
	case SubValue:
		if a.Ranked() {
			if src == nil {
				return 0, false
			}
			return src.Vectors(a).Vector(sub.Value.Original())
		}
		switch sub.Value.Type {
		case ValueNumber:
			return sub.Value.Number, true
		case ValueInteger:
			return float64(sub.Value.Integer), true
		default:
			return 0, false
		}
	case SubStatistic:
		if src == nil {
			return 0, false
		}
		st := src.Stats(a)
		if st == nil {
			return 0, false
		}
		return st.Lookup(sub.Statistic)
	}
	return 0, false
}

func (c *compiled) eval(v float64) bool {
	switch c.kind {
	case KindNoOp:
		return true
	case KindInclude, KindExclude:
		evaluated := c.resolved && c.op.Apply(v, c.against)
		expected := c.kind != KindExclude
		return expected == evaluated
	case KindAnd:
		for i := range c.children {
			if !c.children[i].eval(v) {
				return false
			}
		}
		return true
	case KindOr:
		for i := range c.children {
			if c.children[i].eval(v) {
				return true
			}
		}
		return false
	}
	return false
}

// MatchAxis evaluates a single axis slot against an axis value.
func (p *Program) MatchAxis(a glyph.Axis, v float64) bool {
	c := p.slots[a]
	return c == nil || c.eval(v)
}

// Matches reports whether r passes all three axis slots.
func (p *Program) Matches(r *glyph.Record) bool {
	for _, a := range glyph.Axes {
		if !p.MatchAxis(a, float64(r.Value(a))) {
			return false
		}
	}
	return true
}

// Filter returns the records that pass, in their original order.
func (p *Program) Filter(records []glyph.Record) []glyph.Record {
	keep := p.mask(records)
	out := make([]glyph.Record, 0, len(records))
	for i, k := range keep {
		if k {
			out = append(out, records[i])
		}
	}
	return out
}

// Count returns how many records pass.
func (p *Program) Count(records []glyph.Record) int {
	n := 0
	for _, k := range p.mask(records) {
		if k {
			n++
		}
	}
	return n
}

func (p *Program) mask(records []glyph.Record) []bool {
	keep := make([]bool, len(records))
	run := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			keep[i] = p.Matches(&records[i])
		}
	}
	if len(records) < parallelThreshold {
		run(0, len(records))
	} else {
		parallel.Shared().ForEachChunk(len(records), parallelThreshold/4, run)
	}
	return keep
}
