package query

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/glyphfield/glyph"
)

func gridStore(t *testing.T, nx, nz int) *glyph.Store {
	t.Helper()
	s := glyph.NewStore()
	if err := s.Replace(glyph.Grid(nx, nz, nil)); err != nil {
		t.Fatal(err)
	}
	return s
}

func countMatches(t *testing.T, s *glyph.Store, q *Query) int {
	t.Helper()
	p, err := Compile(q, s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return p.Count(s.Records())
}

func TestScenarios(t *testing.T) {
	s := gridStore(t, 10, 10)

	tests := []struct {
		name string
		json string
		want int
	}{
		{
			name: "include x > 5",
			json: `{"x":{"include":{"sub_type":{"name":"Value","type":"Number","value":5.0},"operator":{"name":"GreaterThan"}}}}`,
			want: 40,
		},
		{
			name: "exclude z > 5",
			json: `{"z":{"exclude":{"sub_type":{"name":"Value","type":"Number","value":5.0},"operator":{"name":"GreaterThan"}}}}`,
			want: 60,
		},
		{
			name: "and x > 5, x < 7",
			json: `{"x":{"and":[
				{"include":{"sub_type":{"name":"Value","type":"Number","value":5.0},"operator":{"name":"GreaterThan"}}},
				{"include":{"sub_type":{"name":"Value","type":"Number","value":7.0},"operator":{"name":"LessThan"}}}]}}`,
			want: 10,
		},
		{
			name: "or x < 5, x > 7",
			json: `{"x":{"or":[
				{"include":{"sub_type":{"name":"Value","type":"Number","value":5.0},"operator":{"name":"LessThan"}}},
				{"include":{"sub_type":{"name":"Value","type":"Number","value":7.0},"operator":{"name":"GreaterThan"}}}]}}`,
			want: 70,
		},
		{
			name: "empty query",
			json: `{}`,
			want: 100,
		},
		{
			name: "y height direct",
			json: `{"y":{"include":{"sub_type":{"name":"Value","type":"Integer","value":9},"operator":{"name":"GreaterThanOrEqual"}}}}`,
			want: 55,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseString(tt.json)
			if err != nil {
				t.Fatal(err)
			}
			if got := countMatches(t, s, q); got != tt.want {
				t.Errorf("survivors = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScenarioSurvivorsValues(t *testing.T) {
	s := gridStore(t, 10, 10)

	q := &Query{Z: Ptr(Exclude(Number(5), GreaterThan))}
	p, _ := Compile(q, s)
	for _, r := range p.Filter(s.Records()) {
		if r.ZValue > 5 {
			t.Fatalf("record %d has z_value %v", r.GlyphID, r.ZValue)
		}
	}

	q = &Query{X: Ptr(And(Include(Number(5), GreaterThan), Include(Number(7), LessThan)))}
	p, _ = Compile(q, s)
	for _, r := range p.Filter(s.Records()) {
		if r.XValue != 6 {
			t.Fatalf("record %d has x_value %v", r.GlyphID, r.XValue)
		}
	}
}

func TestStatisticMean(t *testing.T) {
	records := make([]glyph.Record, 1000)
	for i := range records {
		records[i] = glyph.Record{GlyphID: uint32(i), XRank: uint32(i), XValue: float32(i)}
	}
	ds := glyph.NewDataset(records, glyph.NewVectorTable(), glyph.NewVectorTable())
	ds.XStats.Mean = 500

	s := glyph.NewStore()
	if err := s.Replace(ds); err != nil {
		t.Fatal(err)
	}

	q, err := ParseString(`{"x":{"include":{"sub_type":{"name":"Statistic","value":"mean"},"operator":{"name":"GreaterThan"}}}}`)
	if err != nil {
		t.Fatal(err)
	}
	want := 0
	for _, r := range records {
		if r.XValue > 500 {
			want++
		}
	}
	if got := countMatches(t, s, q); got != want || want != 499 {
		t.Errorf("survivors = %d, want %d", got, want)
	}
}

func TestNoOpAlwaysPasses(t *testing.T) {
	s := gridStore(t, 4, 4)
	q := &Query{X: Ptr(NoOp()), Y: Ptr(NoOp()), Z: Ptr(NoOp())}
	if got := countMatches(t, s, q); got != 16 {
		t.Errorf("NoOp survivors = %d, want 16", got)
	}
}

func TestIncludeExcludeComplement(t *testing.T) {
	s := gridStore(t, 10, 10)
	subs := []SubType{Number(3), Number(0), Statistic("median"), Statistic("pct_75"), Integer(2)}
	ops := []Operator{GreaterThan, LessThan, GreaterThanOrEqual, LessThanOrEqual, Equal, NotEqual}

	for _, sub := range subs {
		for _, op := range ops {
			inc, _ := Compile(&Query{X: Ptr(Include(sub, op))}, s)
			exc, _ := Compile(&Query{X: Ptr(Exclude(sub, op))}, s)
			for _, r := range s.Records() {
				if inc.Matches(&r) == exc.Matches(&r) {
					t.Fatalf("include/exclude agree on %d for %+v %s", r.GlyphID, sub, op)
				}
			}
		}
	}
}

func TestUnresolvableComparison(t *testing.T) {
	s := gridStore(t, 10, 10)

	tests := []struct {
		name string
		axis glyph.Axis
		sub  SubType
	}{
		{"value missing from table", glyph.AxisX, Number(42)},
		{"kind mismatch in table", glyph.AxisX, Integer(5)},
		{"string on x", glyph.AxisX, Text("5")},
		{"string on y", glyph.AxisY, Text("5")},
		{"unknown statistic", glyph.AxisZ, Statistic("mode")},
		{"min is not a filter statistic", glyph.AxisZ, Statistic("min")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inc := &Query{}
			inc.SetSlot(tt.axis, Ptr(Include(tt.sub, GreaterThan)))
			if got := countMatches(t, s, inc); got != 0 {
				t.Errorf("Include survivors = %d, want 0", got)
			}
			exc := &Query{}
			exc.SetSlot(tt.axis, Ptr(Exclude(tt.sub, GreaterThan)))
			if got := countMatches(t, s, exc); got != 100 {
				t.Errorf("Exclude survivors = %d, want 100", got)
			}
		})
	}
}

func TestAndOrTruthTables(t *testing.T) {
	pass := NoOp()
	fail := Include(Statistic("unknown"), GreaterThan)
	p := func(n Node) bool {
		prog, err := Compile(&Query{X: Ptr(n)}, nil)
		if err != nil {
			t.Fatal(err)
		}
		return prog.MatchAxis(glyph.AxisX, 0)
	}

	tests := []struct {
		name string
		node Node
		want bool
	}{
		{"and empty", And(), true},
		{"and all pass", And(pass, pass, pass), true},
		{"and one fails", And(pass, fail, pass), false},
		{"or empty", Or(), false},
		{"or one passes", Or(fail, pass, fail), true},
		{"or none pass", Or(fail, fail), false},
		{"exclude inside and", And(pass, Exclude(Statistic("unknown"), GreaterThan)), true},
		{"nested", Or(And(pass, fail), And(pass, Or(fail, pass))), true},
	}
	for _, tt := range tests {
		if got := p(tt.node); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMonotoneContainment(t *testing.T) {
	s := gridStore(t, 10, 10)
	base := Include(Number(2), GreaterThan)
	extra := Include(Number(8), LessThan)

	n0 := countMatches(t, s, &Query{X: Ptr(And(base))})
	n1 := countMatches(t, s, &Query{X: Ptr(And(base, extra))})
	if n1 > n0 {
		t.Errorf("adding And clause grew set: %d -> %d", n0, n1)
	}

	o0 := countMatches(t, s, &Query{X: Ptr(Or(base))})
	o1 := countMatches(t, s, &Query{X: Ptr(Or(base, extra))})
	if o1 < o0 {
		t.Errorf("adding Or branch shrank set: %d -> %d", o0, o1)
	}
}

func TestFilterPreservesOrderLarge(t *testing.T) {
	s := gridStore(t, 200, 100)
	p, err := Compile(&Query{Z: Ptr(Include(Number(49), GreaterThan))}, s)
	if err != nil {
		t.Fatal(err)
	}
	out := p.Filter(s.Records())
	if len(out) != 200*50 {
		t.Fatalf("len = %d, want %d", len(out), 200*50)
	}
	for i := 1; i < len(out); i++ {
		if out[i].GlyphID <= out[i-1].GlyphID {
			t.Fatalf("order broken at %d", i)
		}
	}
}

func TestCompileRejectsCycle(t *testing.T) {
	children := make([]Node, 1)
	children[0] = Node{Kind: KindAnd, Children: children}
	q := &Query{X: &children[0]}

	if _, err := Compile(q, nil); !errors.Is(err, ErrCycle) {
		t.Fatalf("Compile err = %v, want ErrCycle", err)
	}
}

func TestCompileRejectsBadOperator(t *testing.T) {
	q := &Query{X: Ptr(Include(Number(1), Operator(99)))}
	if _, err := Compile(q, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestCompileRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		q := &Query{Y: Ptr(Or(Exclude(Number(f), GreaterThan)))}
		if _, err := Compile(q, nil); !errors.Is(err, ErrNotFinite) {
			t.Errorf("Compile(%v) err = %v, want ErrNotFinite", f, err)
		}
	}
}

func TestOperators(t *testing.T) {
	tests := []struct {
		op   Operator
		a, b float64
		want bool
	}{
		{GreaterThan, 2, 1, true},
		{GreaterThan, 1, 1, false},
		{LessThan, 1, 2, true},
		{GreaterThanOrEqual, 1, 1, true},
		{LessThanOrEqual, 2, 1, false},
		{Equal, 3, 3, true},
		{NotEqual, 3, 3, false},
	}
	for _, tt := range tests {
		if got := tt.op.Apply(tt.a, tt.b); got != tt.want {
			t.Errorf("%s.Apply(%v, %v) = %v", tt.op, tt.a, tt.b, got)
		}
		back, ok := OperatorByName(tt.op.String())
		if !ok || back != tt.op {
			t.Errorf("OperatorByName(%q) = %v, %v", tt.op.String(), back, ok)
		}
	}
}
