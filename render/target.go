// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"

	gcolor "github.com/gogpu/glyphfield/internal/color"
)

// PixmapTarget is a CPU-backed color target using *image.RGBA.
//
// Example:
//
//	target := render.NewPixmapTarget(800, 600)
//	sw := software.New(software.WithTarget(target))
//	sw.Render(ctx, frame)
//	img := target.Image()
type PixmapTarget struct {
	img *image.RGBA
}

// NewPixmapTarget creates a new CPU-backed render target.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return &PixmapTarget{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// NewPixmapTargetFromImage wraps an existing *image.RGBA as a render target.
// The image is used directly without copying.
func NewPixmapTargetFromImage(img *image.RGBA) *PixmapTarget {
	return &PixmapTarget{img: img}
}

// Width returns the target width in pixels.
func (t *PixmapTarget) Width() int { return t.img.Bounds().Dx() }

// Height returns the target height in pixels.
func (t *PixmapTarget) Height() int { return t.img.Bounds().Dy() }

// Image returns the underlying *image.RGBA.
// The returned image shares memory with the target.
func (t *PixmapTarget) Image() *image.RGBA { return t.img }

// Clear fills the entire target with a straight-alpha color in [0,1].
func (t *PixmapTarget) Clear(c [4]float32) {
	px := ToRGBA8(c)
	pix := t.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = px.R, px.G, px.B, px.A
	}
}

// Set writes one pixel. Out-of-range coordinates are ignored.
func (t *PixmapTarget) Set(x, y int, c [4]float32) {
	t.img.SetRGBA(x, y, ToRGBA8(c))
}

// At returns the pixel at (x, y).
func (t *PixmapTarget) At(x, y int) color.RGBA {
	return t.img.RGBAAt(x, y)
}

// Resize replaces the image when the size changes. The contents are not
// preserved.
func (t *PixmapTarget) Resize(width, height int) {
	if t.Width() == width && t.Height() == height {
		return
	}
	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// ToRGBA8 rounds a [0,1] color to 8 bits per channel.
func ToRGBA8(c [4]float32) color.RGBA {
	u := gcolor.RGBA(c).U8()
	return color.RGBA{R: u[0], G: u[1], B: u[2], A: u[3]}
}
