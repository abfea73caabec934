// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// DefaultHighlight is the outline color of selected glyphs.
var DefaultHighlight = [4]float32{1, 1, 0.6, 1}

// Ambient is the light level of faces turned away from the light.
const Ambient = 0.25

// Axes describes the three axis glyphs: a cylinder from the model origin
// along each positive axis, capped by a cone.
type Axes struct {
	Visible        bool
	Colors         [3][4]float32 // x, y, z
	CylinderRadius float32
	CylinderLength float32
	ConeRadius     float32
	ConeLength     float32
}

// Light is a single point light.
type Light struct {
	Color     [4]float32
	Position  f32.Vec3 // model space
	Intensity float32
}

// Frame is everything a renderer needs to draw one image.
type Frame struct {
	// ViewProj is the camera's row-major projection*view matrix.
	ViewProj f32.Mat4
	Eye      f32.Vec3

	Background [4]float32
	Highlight  [4]float32
	Axes       Axes
	Light      Light

	// ModelOrigin translates model space into world space.
	ModelOrigin f32.Vec3

	// GlyphSize is the x/z footprint of every glyph box.
	GlyphSize float32

	Instances Instances
}

// Model returns the row-major model matrix.
func (f *Frame) Model() f32.Mat4 {
	o := f.ModelOrigin
	return f32.Mat4{
		1, 0, 0, o[0],
		0, 1, 0, o[1],
		0, 0, 1, o[2],
		0, 0, 0, 1,
	}
}

// Shade applies the frame's light to a base color at a model-space point
// with the given unit normal. Alpha is kept. The GPU shaders compute the
// same expression.
func (l *Light) Shade(base [4]float32, pos, normal f32.Vec3) [4]float32 {
	d := f32.Vec3{l.Position[0] - pos[0], l.Position[1] - pos[1], l.Position[2] - pos[2]}
	n := math32.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
	var diffuse float32
	if n > 0 {
		diffuse = math32.Max(0, (d[0]*normal[0]+d[1]*normal[1]+d[2]*normal[2])/n)
	}
	k := Ambient + l.Intensity*diffuse
	out := base
	for i := 0; i < 3; i++ {
		out[i] = math32.Min(1, base[i]*l.Color[i]*k)
	}
	return out
}

// HighlightScale is the footprint of a selection outline box relative to
// the glyph it surrounds.
const HighlightScale = 1.3

// HighlightExtent returns the outline box of a glyph with the given
// footprint and height: its footprint and its bottom and top y.
func HighlightExtent(size, height float32) (footprint, bottom, top float32) {
	pad := size * (HighlightScale - 1) / 2
	return size * HighlightScale, -pad, height + pad
}
