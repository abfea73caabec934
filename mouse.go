package glyphfield

import (
	"context"
	"math"

	"github.com/gogpu/gpucontext"
)

// Mouse tuning.
const (
	// OrbitSpeed is radians of orbit per dragged pixel.
	OrbitSpeed = 0.01

	// PanSpeed is the pan per dragged pixel as a fraction of the camera
	// distance.
	PanSpeed = 0.002

	// DollyStep is the dolly per wheel unit as a fraction of the camera
	// distance.
	DollyStep = 0.1

	// ClickSlop is how far in pixels a press may travel and still count
	// as a click.
	ClickSlop = 3
)

// drag tracks the button held since the last press.
type drag struct {
	active       bool
	button       gpucontext.MouseButton
	startX       float64
	startY       float64
	lastX, lastY float64
	moved        bool
}

func (e *Engine) mouseMove(x, y float64) {
	d := &e.drag
	if !d.active {
		d.lastX, d.lastY = x, y
		return
	}
	dx, dy := float32(x-d.lastX), float32(y-d.lastY)
	d.lastX, d.lastY = x, y
	if math.Hypot(x-d.startX, y-d.startY) > ClickSlop {
		d.moved = true
	}
	if !d.moved {
		return
	}
	switch d.button {
	case gpucontext.MouseButtonLeft:
		e.cam.Orbit(-dx*OrbitSpeed, dy*OrbitSpeed)
	default:
		scale := e.cam.State().Distance * PanSpeed
		e.cam.Pan(-dx*scale, dy*scale)
	}
	e.redrawDirty = true
}

func (e *Engine) mouseButton(ctx context.Context, ev MouseButton) error {
	d := &e.drag
	if ev.Pressed {
		*d = drag{active: true, button: ev.Button, startX: ev.X, startY: ev.Y, lastX: ev.X, lastY: ev.Y}
		return nil
	}
	if !d.active || d.button != ev.Button {
		return nil
	}
	click := !d.moved && ev.Button == gpucontext.MouseButtonLeft
	*d = drag{lastX: ev.X, lastY: ev.Y}
	if !click {
		return nil
	}
	mods := ev.Mods
	if mods == 0 {
		mods = e.mods
	}
	return e.selectAt(ctx, int(ev.X), int(ev.Y), mods.HasShift() || mods.HasControl())
}

func (e *Engine) scroll(dy float64) {
	if dy == 0 {
		return
	}
	e.cam.Dolly(float32(dy) * DollyStep * e.cam.State().Distance)
	e.redrawDirty = true
}
