// Package mesh builds the indexed triangle meshes the renderers draw: the
// unit glyph box and the axis arrows.
//
// Meshes use counter-clockwise front faces and carry one normal per
// vertex. The vertex buffer layout is interleaved position, normal, color.
package mesh

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
)

// VertexSize is the byte stride of one vertex in Bytes.
const VertexSize = 40

// Vertex is one interleaved mesh vertex.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [4]float32
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

// Triangles returns the number of triangles.
func (m *Mesh) Triangles() int { return len(m.Indices) / 3 }

// Triangle returns the three vertices of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c Vertex) {
	return m.Vertices[m.Indices[3*i]], m.Vertices[m.Indices[3*i+1]], m.Vertices[m.Indices[3*i+2]]
}

// Append adds o's triangles to m.
func (m *Mesh) Append(o *Mesh) {
	base := uint16(len(m.Vertices)) //nolint:gosec // meshes stay far below 64k vertices
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, i := range o.Indices {
		m.Indices = append(m.Indices, base+i)
	}
}

// Bytes returns the vertex buffer contents, little-endian.
func (m *Mesh) Bytes() []byte {
	out := make([]byte, len(m.Vertices)*VertexSize)
	for i, v := range m.Vertices {
		b := out[i*VertexSize:]
		for j, f := range v.Position {
			binary.LittleEndian.PutUint32(b[j*4:], math.Float32bits(f))
		}
		for j, f := range v.Normal {
			binary.LittleEndian.PutUint32(b[12+j*4:], math.Float32bits(f))
		}
		for j, f := range v.Color {
			binary.LittleEndian.PutUint32(b[24+j*4:], math.Float32bits(f))
		}
	}
	return out
}

// IndexBytes returns the index buffer contents, padded to a multiple of
// four bytes for buffer writes.
func (m *Mesh) IndexBytes() []byte {
	n := len(m.Indices) * 2
	out := make([]byte, (n+3)&^3)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint16(out[i*2:], idx)
	}
	return out
}

var white = [4]float32{1, 1, 1, 1}

// Box returns the unit glyph box: x and z in [-0.5, 0.5], y in [0, 1].
// Scaling y by the glyph height keeps the base on the floor.
func Box() *Mesh {
	type face struct{ n, u, v [3]float32 }
	// u x v == n for every face so the corner order below is CCW.
	faces := [...]face{
		{n: [3]float32{1, 0, 0}, u: [3]float32{0, 1, 0}, v: [3]float32{0, 0, 1}},
		{n: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
		{n: [3]float32{0, 1, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{1, 0, 0}},
		{n: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
		{n: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
		{n: [3]float32{0, 0, -1}, u: [3]float32{0, 1, 0}, v: [3]float32{1, 0, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	m := &Mesh{
		Vertices: make([]Vertex, 0, 24),
		Indices:  make([]uint16, 0, 36),
	}
	for _, f := range faces {
		base := uint16(len(m.Vertices)) //nolint:gosec // 24 vertices
		for _, c := range corners {
			var p [3]float32
			for k := 0; k < 3; k++ {
				p[k] = 0.5 * (f.n[k] + c[0]*f.u[k] + c[1]*f.v[k])
			}
			p[1] += 0.5
			m.Vertices = append(m.Vertices, Vertex{Position: p, Normal: f.n, Color: white})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// Axis orients a shape built along +Y onto a model axis.
type Axis uint8

// Axis orientations.
const (
	AlongX Axis = iota
	AlongY
	AlongZ
)

// orient rotates a +Y aligned point onto the axis. Both rotations are
// proper so winding is preserved.
func orient(p [3]float32, a Axis) [3]float32 {
	switch a {
	case AlongX:
		return [3]float32{p[1], -p[0], p[2]}
	case AlongZ:
		return [3]float32{p[0], -p[2], p[1]}
	default:
		return p
	}
}

// Cylinder returns a capped cylinder of the given radius from 0 to length
// along the axis.
func Cylinder(radius, length float32, segments int, a Axis, color [4]float32) *Mesh {
	return frustum(radius, radius, 0, length, segments, a, color)
}

// Cone returns a cone with its base at start and its tip at start+length.
func Cone(radius, start, length float32, segments int, a Axis, color [4]float32) *Mesh {
	return frustum(radius, 0, start, start+length, segments, a, color)
}

func frustum(r0, r1, y0, y1 float32, segments int, a Axis, color [4]float32) *Mesh {
	segments = max(segments, 3)
	m := &Mesh{}
	add := func(p, n [3]float32) uint16 {
		m.Vertices = append(m.Vertices, Vertex{Position: orient(p, a), Normal: orient(n, a), Color: color})
		return uint16(len(m.Vertices) - 1) //nolint:gosec // bounded by segments
	}

	h := y1 - y0
	slant := math32.Sqrt(h*h + (r0-r1)*(r0-r1))
	ny, nr := float32(0), float32(1)
	if slant > 0 {
		ny, nr = (r0-r1)/slant, h/slant
	}

	step := 2 * math32.Pi / float32(segments)
	ring := func(i int) (float32, float32) {
		s, c := math32.Sincos(float32(i%segments) * step)
		return c, s
	}

	// side
	for i := 0; i < segments; i++ {
		c0, s0 := ring(i)
		c1, s1 := ring(i + 1)
		n0 := [3]float32{c0 * nr, ny, s0 * nr}
		n1 := [3]float32{c1 * nr, ny, s1 * nr}
		a0 := add([3]float32{r0 * c0, y0, r0 * s0}, n0)
		b0 := add([3]float32{r0 * c1, y0, r0 * s1}, n1)
		b1 := add([3]float32{r1 * c1, y1, r1 * s1}, n1)
		a1 := add([3]float32{r1 * c0, y1, r1 * s0}, n0)
		m.Indices = append(m.Indices, a0, b1, b0)
		if r1 > 0 {
			m.Indices = append(m.Indices, a0, a1, b1)
		}
	}

	// caps
	disc := func(y, r, ny float32) {
		if r <= 0 {
			return
		}
		n := [3]float32{0, ny, 0}
		center := add([3]float32{0, y, 0}, n)
		for i := 0; i < segments; i++ {
			c0, s0 := ring(i)
			c1, s1 := ring(i + 1)
			p0 := add([3]float32{r * c0, y, r * s0}, n)
			p1 := add([3]float32{r * c1, y, r * s1}, n)
			if ny < 0 {
				m.Indices = append(m.Indices, center, p0, p1)
			} else {
				m.Indices = append(m.Indices, center, p1, p0)
			}
		}
	}
	disc(y0, r0, -1)
	disc(y1, r1, 1)
	return m
}

// AxisSpec sizes the axis arrows.
type AxisSpec struct {
	CylinderRadius float32
	CylinderLength float32
	ConeRadius     float32
	ConeLength     float32
	Colors         [3][4]float32 // X, Y, Z
	Segments       int
}

// DefaultSegments is the radial resolution of the axis arrows.
const DefaultSegments = 16

// Axes returns the three axis arrows merged into one mesh. Each arrow is a
// cylinder from the origin followed by a cone.
func Axes(s AxisSpec) *Mesh {
	segs := s.Segments
	if segs == 0 {
		segs = DefaultSegments
	}
	m := &Mesh{}
	for i, a := range [...]Axis{AlongX, AlongY, AlongZ} {
		m.Append(Cylinder(s.CylinderRadius, s.CylinderLength, segs, a, s.Colors[i]))
		m.Append(Cone(s.ConeRadius, s.CylinderLength, s.ConeLength, segs, a, s.Colors[i]))
	}
	return m
}
