package glyphfield

import (
	"golang.org/x/image/math/f32"

	"github.com/gogpu/glyphfield/render"
)

// frame assembles the render input from the current state.
func (e *Engine) frame() *render.Frame {
	c := &e.cfg
	return &render.Frame{
		ViewProj:   e.cam.ViewProjection(),
		Eye:        e.cam.Eye(),
		Background: c.BackgroundColor,
		Highlight:  render.DefaultHighlight,
		Axes: render.Axes{
			Visible:        e.axesVisible,
			Colors:         [3][4]float32{c.XAxisColor, c.YAxisColor, c.ZAxisColor},
			CylinderRadius: c.GridCylinderRadius,
			CylinderLength: c.GridCylinderLength,
			ConeRadius:     c.GridConeRadius,
			ConeLength:     c.GridConeLength,
		},
		Light: render.Light{
			Color:     c.LightColor,
			Position:  f32.Vec3(c.LightLocation),
			Intensity: c.LightIntensity,
		},
		ModelOrigin: f32.Vec3(c.ModelOrigin),
		GlyphSize:   c.GlyphSize,
		Instances:   e.instances,
	}
}
