// Package camera implements the orbit camera that frames the glyph field.
//
// A Camera orbits a target point at a given yaw, pitch and distance. All
// mutations invalidate the cached view-projection matrix, which is rebuilt
// on the next call to ViewProjection. A Camera is owned by one goroutine.
package camera

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/glyphfield/glyph"
)

// PitchEpsilon keeps pitch strictly inside (-π/2, π/2) so the view never
// looks straight along the up vector.
const PitchEpsilon = 1e-3

const maxPitch = math32.Pi/2 - PitchEpsilon

// Options are the constructor parameters. Reset restores them.
type Options struct {
	Target   f32.Vec3
	Yaw      float32 // radians, 0 looks down -Z
	Pitch    float32 // radians, positive looks down on the target
	Distance float32

	FovY   float32 // radians
	Aspect float32
	Near   float32
	Far    float32

	MinDistance float32
	MaxDistance float32
}

// DefaultOptions frames a field centered on the origin from above and to
// the side.
func DefaultOptions() Options {
	return Options{
		Yaw:         math32.Pi / 4,
		Pitch:       math32.Pi / 6,
		Distance:    20,
		FovY:        math32.Pi / 4,
		Aspect:      1,
		Near:        0.1,
		Far:         1000,
		MinDistance: 0.5,
		MaxDistance: 500,
	}
}

// State is the mutable part of a camera.
type State struct {
	Target   f32.Vec3
	Yaw      float32
	Pitch    float32
	Distance float32
	Aspect   float32
}

// Camera is an orbit camera.
type Camera struct {
	opts  Options
	state State

	viewProj f32.Mat4
	dirty    bool
}

// New returns a camera at the given options. Zero projection fields fall
// back to DefaultOptions.
func New(opts Options) *Camera {
	def := DefaultOptions()
	if opts.FovY <= 0 {
		opts.FovY = def.FovY
	}
	if opts.Aspect <= 0 {
		opts.Aspect = def.Aspect
	}
	if opts.Near <= 0 {
		opts.Near = def.Near
	}
	if opts.Far <= opts.Near {
		opts.Far = def.Far
	}
	if opts.MinDistance <= 0 {
		opts.MinDistance = def.MinDistance
	}
	if opts.MaxDistance < opts.MinDistance {
		opts.MaxDistance = def.MaxDistance
	}
	if opts.Distance <= 0 {
		opts.Distance = def.Distance
	}
	c := &Camera{opts: opts}
	c.Reset()
	return c
}

// Reset restores the constructor state. The aspect ratio is kept since it
// belongs to the window, not the view.
func (c *Camera) Reset() {
	aspect := c.state.Aspect
	if aspect <= 0 {
		aspect = c.opts.Aspect
	}
	c.state = State{
		Target:   c.opts.Target,
		Yaw:      wrapAngle(c.opts.Yaw),
		Pitch:    clampPitch(c.opts.Pitch),
		Distance: c.clampDistance(c.opts.Distance),
		Aspect:   aspect,
	}
	c.dirty = true
}

// State returns a copy of the current state.
func (c *Camera) State() State { return c.state }

// Orbit rotates the eye around the target.
func (c *Camera) Orbit(dyaw, dpitch float32) {
	c.state.Yaw = wrapAngle(c.state.Yaw + dyaw)
	c.state.Pitch = clampPitch(c.state.Pitch + dpitch)
	c.dirty = true
}

// Dolly moves the eye toward (negative d) or away from the target.
func (c *Camera) Dolly(d float32) {
	c.state.Distance = c.clampDistance(c.state.Distance + d)
	c.dirty = true
}

// Pan translates the target in the camera's right/up plane.
func (c *Camera) Pan(dx, dy float32) {
	right, up := c.basis()
	c.state.Target = add(c.state.Target, add(scale(right, dx), scale(up, dy)))
	c.dirty = true
}

// SnapToAxis orients the camera so the given axis points into the screen.
// Target and distance are kept.
func (c *Camera) SnapToAxis(a glyph.Axis) {
	switch a {
	case glyph.AxisX:
		c.state.Yaw, c.state.Pitch = -math32.Pi/2, 0
	case glyph.AxisY:
		c.state.Yaw, c.state.Pitch = 0, -maxPitch
	case glyph.AxisZ:
		c.state.Yaw, c.state.Pitch = math32.Pi, 0
	default:
		return
	}
	c.dirty = true
}

// SetAspect updates the aspect ratio after a resize. Non-positive values
// are ignored.
func (c *Camera) SetAspect(aspect float32) {
	if aspect <= 0 || aspect == c.state.Aspect {
		return
	}
	c.state.Aspect = aspect
	c.dirty = true
}

// Eye returns the eye position.
func (c *Camera) Eye() f32.Vec3 {
	return add(c.state.Target, scale(c.direction(), c.state.Distance))
}

// View returns the view matrix.
func (c *Camera) View() f32.Mat4 {
	return LookAt(c.Eye(), c.state.Target, f32.Vec3{0, 1, 0})
}

// Projection returns the projection matrix.
func (c *Camera) Projection() f32.Mat4 {
	return Perspective(c.opts.FovY, c.state.Aspect, c.opts.Near, c.opts.Far)
}

// ViewProjection returns projection*view, rebuilding it only after a
// mutation.
func (c *Camera) ViewProjection() f32.Mat4 {
	if c.dirty {
		c.viewProj = Mul(c.Projection(), c.View())
		c.dirty = false
	}
	return c.viewProj
}

// Project maps a world point to pixel coordinates in a width x height
// viewport with the origin at the top left. Depth is in [0,1]. ok is false
// for points behind the eye.
func (c *Camera) Project(world f32.Vec3, width, height int) (x, y, depth float32, ok bool) {
	clip := Transform(c.ViewProjection(), f32.Vec4{world[0], world[1], world[2], 1})
	if clip[3] <= 0 {
		return 0, 0, 0, false
	}
	nx, ny, nz := clip[0]/clip[3], clip[1]/clip[3], clip[2]/clip[3]
	x = (nx + 1) / 2 * float32(width)
	y = (1 - ny) / 2 * float32(height)
	return x, y, nz, true
}

// direction is the unit vector from target to eye.
func (c *Camera) direction() f32.Vec3 {
	sy, cy := math32.Sincos(c.state.Yaw)
	sp, cp := math32.Sincos(c.state.Pitch)
	return f32.Vec3{cp * sy, sp, cp * cy}
}

func (c *Camera) basis() (right, up f32.Vec3) {
	forward := scale(c.direction(), -1)
	right = normalize(cross(forward, f32.Vec3{0, 1, 0}))
	up = cross(right, forward)
	return right, up
}

func (c *Camera) clampDistance(d float32) float32 {
	return math32.Max(c.opts.MinDistance, math32.Min(d, c.opts.MaxDistance))
}

func clampPitch(p float32) float32 {
	return math32.Max(-maxPitch, math32.Min(p, maxPitch))
}

func wrapAngle(a float32) float32 {
	a = math32.Mod(a, 2*math32.Pi)
	if a > math32.Pi {
		a -= 2 * math32.Pi
	} else if a <= -math32.Pi {
		a += 2 * math32.Pi
	}
	return a
}
