package mesh

import (
	"encoding/binary"
	"math"
	"testing"
)

func sub(a, b [3]float32) [3]float32 { return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func dot(a, b [3]float32) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

// checkWinding verifies that every triangle faces along its vertex normals.
func checkWinding(t *testing.T, m *Mesh) {
	t.Helper()
	for i := 0; i < m.Triangles(); i++ {
		a, b, c := m.Triangle(i)
		n := cross(sub(b.Position, a.Position), sub(c.Position, a.Position))
		if dot(n, a.Normal) <= 0 {
			t.Fatalf("triangle %d winds against its normal: face %v, normal %v", i, n, a.Normal)
		}
	}
}

func TestBox(t *testing.T) {
	m := Box()
	if len(m.Vertices) != 24 || len(m.Indices) != 36 {
		t.Fatalf("box has %d vertices, %d indices", len(m.Vertices), len(m.Indices))
	}
	checkWinding(t, m)

	for _, v := range m.Vertices {
		p := v.Position
		if p[0] < -0.5 || p[0] > 0.5 || p[2] < -0.5 || p[2] > 0.5 || p[1] < 0 || p[1] > 1 {
			t.Errorf("vertex %v outside the unit box", p)
		}
		if l := dot(v.Normal, v.Normal); l != 1 {
			t.Errorf("normal %v is not unit", v.Normal)
		}
	}
}

func TestCylinderAndCone(t *testing.T) {
	red := [4]float32{1, 0, 0, 1}
	for _, a := range []Axis{AlongX, AlongY, AlongZ} {
		cyl := Cylinder(0.1, 5, 8, a, red)
		checkWinding(t, cyl)
		cone := Cone(0.3, 5, 1, 8, a, red)
		checkWinding(t, cone)

		// the cone tip lies on the axis at 6
		var tip [3]float32
		for _, v := range cone.Vertices {
			if dot(v.Position, v.Position) > dot(tip, tip) {
				tip = v.Position
			}
		}
		want := [3]float32{}
		want[a] = 6
		for k := range tip {
			if math.Abs(float64(tip[k]-want[k])) > 1e-5 {
				t.Errorf("axis %d: tip %v, want %v", a, tip, want)
				break
			}
		}
	}
}

func TestAxes(t *testing.T) {
	s := AxisSpec{
		CylinderRadius: 0.05, CylinderLength: 10, ConeRadius: 0.15, ConeLength: 0.4,
		Colors: [3][4]float32{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}},
	}
	m := Axes(s)
	checkWinding(t, m)

	seen := map[[4]float32]bool{}
	for _, v := range m.Vertices {
		seen[v.Color] = true
	}
	if len(seen) != 3 {
		t.Errorf("axes use %d colors, want 3", len(seen))
	}
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			t.Fatalf("index %d out of range", idx)
		}
	}
}

func TestBytes(t *testing.T) {
	m := Box()
	b := m.Bytes()
	if len(b) != 24*VertexSize {
		t.Fatalf("len = %d", len(b))
	}
	v := m.Vertices[5]
	got := math.Float32frombits(binary.LittleEndian.Uint32(b[5*VertexSize+12:]))
	if got != v.Normal[0] {
		t.Errorf("normal.x = %v, want %v", got, v.Normal[0])
	}

	ib := m.IndexBytes()
	if len(ib)%4 != 0 || len(ib) < 72 {
		t.Errorf("index bytes len = %d", len(ib))
	}
	if binary.LittleEndian.Uint16(ib[70:]) != m.Indices[35] {
		t.Error("last index mismatch")
	}
}
