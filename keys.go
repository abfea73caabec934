package glyphfield

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glyphfield/config"
	"github.com/gogpu/glyphfield/glyph"
	"github.com/gogpu/glyphfield/internal/color"
	"github.com/gogpu/glyphfield/query"
)

// Nudge factors. Shift shrinks, Alt makes the step fine.
const (
	CoarseGrow   = 1.1
	CoarseShrink = 0.9
	FineGrow     = 1.01
	FineShrink   = 0.99
)

// Nudged scalars stay inside [nudgeMin, nudgeMax].
const (
	nudgeMin = 1e-4
	nudgeMax = 1e4
)

// Step sizes for arrow keys.
const (
	PanStep   = 0.5
	LightStep = 0.5
)

// DemoSelectionSize is the number of glyphs Ctrl+S selects.
const DemoSelectionSize = 5

// NudgeFactor returns the multiplier a key press with mods applies.
func NudgeFactor(mods gpucontext.Modifiers) float32 {
	switch {
	case mods.HasAlt() && mods.HasShift():
		return FineShrink
	case mods.HasAlt():
		return FineGrow
	case mods.HasShift():
		return CoarseShrink
	default:
		return CoarseGrow
	}
}

// nudge scales a size, keeping positive values inside the nudge bounds.
// Zero stays zero.
func nudge(v *float32, f float32) {
	if *v == 0 {
		return
	}
	*v = math32.Max(nudgeMin, math32.Min(*v*f, nudgeMax))
}

// nudgeColor scales the RGB channels of c, clamped to [0,1].
func nudgeColor(c *config.Color, f float32) {
	for i := 0; i < 3; i++ {
		c[i] = math32.Max(0, math32.Min(c[i]*f, 1))
	}
}

func nudgeVec(v *config.Vec3, f float32) {
	for i := range v {
		v[i] = math32.Max(-nudgeMax, math32.Min(v[i]*f, nudgeMax))
	}
}

// cycleColor moves c one step around the color wheel, backwards with
// Shift. Alpha is kept.
func cycleColor(c *config.Color, mods gpucontext.Modifiers) {
	w := color.DefaultWheel()
	step := 1
	if mods.HasShift() {
		step = -1
	}
	next := w.Color(w.Nearest(color.RGBA(*c)) + step)
	c[0], c[1], c[2] = next[0], next[1], next[2]
}

// axisOf maps the X, Y and Z keys to axes.
func axisOf(k gpucontext.Key) (glyph.Axis, bool) {
	switch k {
	case gpucontext.KeyX:
		return glyph.AxisX, true
	case gpucontext.KeyY:
		return glyph.AxisY, true
	case gpucontext.KeyZ:
		return glyph.AxisZ, true
	}
	return 0, false
}

// handleKey applies the key bindings. Bindings mutate configuration or
// camera and schedule a redraw; a few trigger selection or filter
// changes.
func (e *Engine) handleKey(k gpucontext.Key, mods gpucontext.Modifiers) {
	c := &e.cfg
	f := NudgeFactor(mods)
	ctrl, alt := mods.HasControl(), mods.HasAlt()

	if a, ok := axisOf(k); ok {
		switch {
		case ctrl && alt:
			c.XOrder, c.YOrder, c.ZOrder = toggleAt(a, c.XOrder, c.YOrder, c.ZOrder, config.Order.Toggle)
		case ctrl:
			e.cam.SnapToAxis(a)
			e.redrawDirty = true
			return
		case alt:
			c.XInterpolation, c.YInterpolation, c.ZInterpolation = toggleAt(a,
				c.XInterpolation, c.YInterpolation, c.ZInterpolation, config.Interpolation.Toggle)
		default:
			cycleColor(axisColor(c, a), mods)
		}
		e.configChanged()
		return
	}

	switch k {
	case gpucontext.KeyR:
		nudge(&c.GridCylinderRadius, f)
	case gpucontext.KeyA:
		if ctrl {
			e.toggleAxes()
			return
		}
		nudge(&c.GridCylinderLength, f)
	case gpucontext.KeyC:
		switch {
		case ctrl && alt:
			e.filterDirty, e.layoutDirty, e.redrawDirty = true, true, true
			return
		case ctrl:
			e.cam.Reset()
			e.redrawDirty = true
			return
		}
		nudge(&c.GridConeLength, f)
	case gpucontext.KeyK:
		nudge(&c.GridConeRadius, f)
	case gpucontext.KeyH:
		nudge(&c.ZHeightRatio, f)
	case gpucontext.KeyO:
		nudge(&c.GlyphOffset, f)
	case gpucontext.KeyE:
		nudge(&c.MinGlyphHeight, f)
	case gpucontext.KeyS:
		if ctrl {
			e.selectIDs(e.demoSelection())
			return
		}
		nudge(&c.GlyphSize, f)
	case gpucontext.KeyF:
		if ctrl {
			e.toggleDemoFilter()
			return
		}
		c.ColorFlip = !c.ColorFlip
	case gpucontext.KeyW:
		nudgeColor(&c.LightColor, f)
	case gpucontext.KeyL:
		nudgeVec(&c.LightLocation, f)
	case gpucontext.KeyI:
		nudge(&c.LightIntensity, f)
	case gpucontext.KeyM:
		cycleColor(&c.MaxColor, mods)
	case gpucontext.KeyN:
		cycleColor(&c.MinColor, mods)
	case gpucontext.KeyB:
		cycleColor(&c.BackgroundColor, mods)
	case gpucontext.KeyG:
		nudgeVec(&c.ModelOrigin, f)
	case gpucontext.KeyLeft, gpucontext.KeyRight, gpucontext.KeyUp, gpucontext.KeyDown:
		if ctrl || alt {
			moveLight(&c.LightLocation, k)
			break
		}
		e.panKey(k)
		return
	default:
		return
	}
	e.configChanged()
}

func axisColor(c *config.Config, a glyph.Axis) *config.Color {
	switch a {
	case glyph.AxisX:
		return &c.XAxisColor
	case glyph.AxisY:
		return &c.YAxisColor
	default:
		return &c.ZAxisColor
	}
}

// toggleAt applies toggle to the value of axis a among x, y and z.
func toggleAt[T any](a glyph.Axis, x, y, z T, toggle func(T) T) (T, T, T) {
	switch a {
	case glyph.AxisX:
		x = toggle(x)
	case glyph.AxisY:
		y = toggle(y)
	default:
		z = toggle(z)
	}
	return x, y, z
}

func moveLight(p *config.Vec3, k gpucontext.Key) {
	switch k {
	case gpucontext.KeyLeft:
		p[0] -= LightStep
	case gpucontext.KeyRight:
		p[0] += LightStep
	case gpucontext.KeyUp:
		p[2] -= LightStep
	case gpucontext.KeyDown:
		p[2] += LightStep
	}
}

func (e *Engine) panKey(k gpucontext.Key) {
	switch k {
	case gpucontext.KeyLeft:
		e.cam.Pan(-PanStep, 0)
	case gpucontext.KeyRight:
		e.cam.Pan(PanStep, 0)
	case gpucontext.KeyUp:
		e.cam.Pan(0, PanStep)
	case gpucontext.KeyDown:
		e.cam.Pan(0, -PanStep)
	}
	e.redrawDirty = true
}

// demoSelection returns the first visible glyph ids.
func (e *Engine) demoSelection() []uint32 {
	if e.filterDirty {
		e.refilter()
	}
	n := min(DemoSelectionSize, len(e.visible))
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = e.visible[i].GlyphID
	}
	return ids
}

// DemoFilter keeps the glyphs taller than the median.
func DemoFilter() *query.Query {
	return &query.Query{Y: query.Ptr(query.Include(query.Statistic("median"), query.GreaterThan))}
}

// toggleDemoFilter switches between DemoFilter and the filter that was
// active before it.
func (e *Engine) toggleDemoFilter() {
	q := DemoFilter()
	if e.demoActive {
		q = e.demoSaved
	}
	saved := e.filter
	if err := e.applyFilter(q); err != nil {
		e.rejectFilter(err)
		return
	}
	if !e.demoActive {
		e.demoSaved = saved
	}
	e.demoActive = !e.demoActive
}
