// Package software is a CPU rasterizer implementing render.Renderer.
//
// It draws the same passes as the GPU renderer (axes, lit glyph boxes and
// selection outlines) with flat shading and a float depth buffer, and
// keeps a pick buffer of glyph ids. It is used headless, in tests and as
// the fallback when no adapter is available.
package software

import (
	"context"
	"fmt"
	"image/color"
	"math"

	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/glyphfield/camera"
	"github.com/gogpu/glyphfield/internal/mesh"
	"github.com/gogpu/glyphfield/render"
)

const (
	defaultWidth  = 640
	defaultHeight = 480

	// ctxCheckEvery is how many instances are drawn between context checks.
	ctxCheckEvery = 512
)

type cullMode uint8

const (
	cullBack cullMode = iota
	cullFront
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithTarget draws into an existing target. Its size is the initial size.
func WithTarget(t *render.PixmapTarget) Option {
	return func(r *Renderer) { r.target = t }
}

// WithSize sets the initial size of the internal target.
func WithSize(width, height int) Option {
	return func(r *Renderer) { r.target = render.NewPixmapTarget(width, height) }
}

// Renderer rasterizes frames on the CPU.
type Renderer struct {
	target *render.PixmapTarget
	depth  []float32
	pick   []uint32

	box     *mesh.Mesh
	axes    *mesh.Mesh
	axesKey render.Axes

	destroyed bool
}

// New returns a software renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{box: mesh.Box()}
	for _, o := range opts {
		o(r)
	}
	if r.target == nil {
		r.target = render.NewPixmapTarget(defaultWidth, defaultHeight)
	}
	r.alloc()
	return r
}

func (r *Renderer) alloc() {
	n := r.target.Width() * r.target.Height()
	if cap(r.depth) >= n {
		r.depth = r.depth[:n]
		r.pick = r.pick[:n]
		return
	}
	r.depth = make([]float32, n)
	r.pick = make([]uint32, n)
}

// Target returns the color target.
func (r *Renderer) Target() *render.PixmapTarget { return r.target }

// Capabilities implements render.CapableRenderer.
func (*Renderer) Capabilities() render.Capabilities {
	return render.Capabilities{Backend: "software"}
}

// Resize implements render.Renderer.
func (r *Renderer) Resize(width, height int) error {
	if r.destroyed {
		return render.ErrNotReady
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("software: invalid size %dx%d", width, height)
	}
	r.target.Resize(width, height)
	r.alloc()
	return nil
}

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, f *render.Frame) error {
	if r.destroyed {
		return render.ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.target.Clear(f.Background)
	for i := range r.depth {
		r.depth[i] = 1
		r.pick[i] = 0
	}

	mvp := camera.Mul(f.ViewProj, f.Model())

	if f.Axes.Visible {
		r.drawAxes(f, mvp)
	}

	size := f.GlyphSize
	selected := 0
	for i := 0; i < f.Instances.Len(); i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		in := f.Instances.At(i)
		if in.Selected() {
			selected++
		}
		r.drawBox(f, mvp, in.Position, size, 0, in.Position[1], in.Color, render.PickValue(in.GlyphID))
	}

	if selected == 0 {
		return nil
	}
	highlight := f.Highlight
	if highlight[3] == 0 {
		highlight = render.DefaultHighlight
	}
	for i := 0; i < f.Instances.Len(); i++ {
		in := f.Instances.At(i)
		if !in.Selected() {
			continue
		}
		footprint, bottom, top := render.HighlightExtent(size, in.Position[1])
		r.drawOutline(mvp, in.Position, footprint, bottom, top, highlight)
	}
	return nil
}

func (r *Renderer) drawAxes(f *render.Frame, mvp f32.Mat4) {
	if r.axes == nil || r.axesKey != f.Axes {
		r.axes = mesh.Axes(mesh.AxisSpec{
			CylinderRadius: f.Axes.CylinderRadius,
			CylinderLength: f.Axes.CylinderLength,
			ConeRadius:     f.Axes.ConeRadius,
			ConeLength:     f.Axes.ConeLength,
			Colors:         f.Axes.Colors,
		})
		r.axesKey = f.Axes
	}
	for t := 0; t < r.axes.Triangles(); t++ {
		a, b, c := r.axes.Triangle(t)
		shade := f.Light.Shade(a.Color, centroid(a.Position, b.Position, c.Position), a.Normal)
		r.triangle(
			[3]f32.Vec4{clip(mvp, a.Position), clip(mvp, b.Position), clip(mvp, c.Position)},
			render.ToRGBA8(shade), 0, true, cullBack)
	}
}

// boxVertex maps a unit box vertex onto a glyph footprint at pos spanning
// [bottom, top] in y.
func boxVertex(v, pos [3]float32, size, bottom, top float32) [3]float32 {
	return [3]float32{pos[0] + v[0]*size, bottom + v[1]*(top-bottom), pos[2] + v[2]*size}
}

func (r *Renderer) drawBox(f *render.Frame, mvp f32.Mat4, pos [3]float32, size, bottom, top float32, base [4]float32, pick uint32) {
	for t := 0; t < r.box.Triangles(); t++ {
		a, b, c := r.box.Triangle(t)
		pa := boxVertex(a.Position, pos, size, bottom, top)
		pb := boxVertex(b.Position, pos, size, bottom, top)
		pc := boxVertex(c.Position, pos, size, bottom, top)
		shade := f.Light.Shade(base, centroid(pa, pb, pc), a.Normal)
		r.triangle([3]f32.Vec4{clip(mvp, pa), clip(mvp, pb), clip(mvp, pc)}, render.ToRGBA8(shade), pick, true, cullBack)
	}
}

// drawOutline draws the back faces of an enlarged box. Where the glyph
// itself is nearer they fail the depth test, leaving a rim.
func (r *Renderer) drawOutline(mvp f32.Mat4, pos [3]float32, size, bottom, top float32, c [4]float32) {
	px := render.ToRGBA8(c)
	for t := 0; t < r.box.Triangles(); t++ {
		a, b, cc := r.box.Triangle(t)
		r.triangle([3]f32.Vec4{
			clip(mvp, boxVertex(a.Position, pos, size, bottom, top)),
			clip(mvp, boxVertex(b.Position, pos, size, bottom, top)),
			clip(mvp, boxVertex(cc.Position, pos, size, bottom, top)),
		}, px, 0, false, cullFront)
	}
}

func centroid(a, b, c [3]float32) f32.Vec3 {
	return f32.Vec3{(a[0] + b[0] + c[0]) / 3, (a[1] + b[1] + c[1]) / 3, (a[2] + b[2] + c[2]) / 3}
}

func clip(m f32.Mat4, p [3]float32) f32.Vec4 {
	return camera.Transform(m, f32.Vec4{p[0], p[1], p[2], 1})
}

// triangle clips a clip-space triangle against the near plane and
// rasterizes the pieces.
func (r *Renderer) triangle(v [3]f32.Vec4, px color.RGBA, pick uint32, writePick bool, cull cullMode) {
	var poly [4]f32.Vec4
	n := 0
	for i := 0; i < 3; i++ {
		a, b := v[i], v[(i+1)%3]
		if a[2] >= 0 {
			poly[n] = a
			n++
		}
		if (a[2] >= 0) != (b[2] >= 0) {
			t := a[2] / (a[2] - b[2])
			for k := 0; k < 4; k++ {
				poly[n][k] = a[k] + (b[k]-a[k])*t
			}
			n++
		}
	}
	for i := 1; i+1 < n; i++ {
		r.raster(r.screen(poly[0]), r.screen(poly[i]), r.screen(poly[i+1]), px, pick, writePick, cull)
	}
}

// screen returns pixel x, y and NDC depth.
func (r *Renderer) screen(c f32.Vec4) f32.Vec3 {
	w := c[3]
	return f32.Vec3{
		(c[0]/w + 1) / 2 * float32(r.target.Width()),
		(1 - c[1]/w) / 2 * float32(r.target.Height()),
		c[2] / w,
	}
}

func edge(a, b f32.Vec3, x, y float32) float32 {
	return (x-a[0])*(b[1]-a[1]) - (y-a[1])*(b[0]-a[0])
}

func (r *Renderer) raster(a, b, c f32.Vec3, px color.RGBA, pick uint32, writePick bool, cull cullMode) {
	area := edge(a, b, c[0], c[1])
	if area == 0 || math.IsNaN(float64(area)) {
		return
	}
	// Screen y points down, so counter-clockwise front faces have a
	// positive area here.
	front := area > 0
	if (cull == cullBack && !front) || (cull == cullFront && front) {
		return
	}

	w, h := r.target.Width(), r.target.Height()
	minX := max(0, int(math32.Floor(min(a[0], b[0], c[0]))))
	maxX := min(w-1, int(math32.Ceil(max(a[0], b[0], c[0]))))
	minY := max(0, int(math32.Floor(min(a[1], b[1], c[1]))))
	maxY := min(h-1, int(math32.Ceil(max(a[1], b[1], c[1]))))

	img := r.target.Image()
	inv := 1 / area
	for y := minY; y <= maxY; y++ {
		fy := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			fx := float32(x) + 0.5
			w0 := edge(b, c, fx, fy) * inv
			w1 := edge(c, a, fx, fy) * inv
			w2 := edge(a, b, fx, fy) * inv
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a[2] + w1*b[2] + w2*c[2]
			if z < 0 || z > 1 {
				continue
			}
			i := y*w + x
			if z >= r.depth[i] {
				continue
			}
			r.depth[i] = z
			img.SetRGBA(x, y, px)
			if writePick {
				r.pick[i] = pick
			}
		}
	}
}

// ReadPick implements render.Renderer.
func (r *Renderer) ReadPick(ctx context.Context, x, y, w, h int) ([]uint32, error) {
	if r.destroyed {
		return nil, render.ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tw, th := r.target.Width(), r.target.Height()
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > tw || y+h > th {
		return nil, fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d", render.ErrOutOfBounds, w, h, x, y, tw, th)
	}
	out := make([]uint32, 0, w*h)
	for row := y; row < y+h; row++ {
		out = append(out, r.pick[row*tw+x:row*tw+x+w]...)
	}
	return out, nil
}

// Destroy implements render.Renderer.
func (r *Renderer) Destroy() {
	r.destroyed = true
	r.depth, r.pick = nil, nil
}

var _ render.CapableRenderer = (*Renderer)(nil)
