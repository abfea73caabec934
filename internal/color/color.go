// Package color provides the color types, palette and color space
// conversions used by glyphfield.
package color

import "math"

// RGBA is a straight-alpha color with float32 components in [0,1],
// stored as R, G, B, A.
type RGBA [4]float32

// Common colors.
var (
	Black = RGBA{0, 0, 0, 1}
	White = RGBA{1, 1, 1, 1}
)

// R returns the red component.
func (c RGBA) R() float32 { return c[0] }

// G returns the green component.
func (c RGBA) G() float32 { return c[1] }

// B returns the blue component.
func (c RGBA) B() float32 { return c[2] }

// A returns the alpha component.
func (c RGBA) A() float32 { return c[3] }

// Lerp blends c toward other by t. The blend is written as
// c*(1-t) + other*t so that t == 0 yields c and t == 1 yields other
// without rounding error.
func (c RGBA) Lerp(other RGBA, t float32) RGBA {
	u := 1 - t
	return RGBA{
		c[0]*u + other[0]*t,
		c[1]*u + other[1]*t,
		c[2]*u + other[2]*t,
		c[3]*u + other[3]*t,
	}
}

// Scale multiplies the RGB components by f, leaving alpha unchanged.
func (c RGBA) Scale(f float32) RGBA {
	return RGBA{c[0] * f, c[1] * f, c[2] * f, c[3]}
}

// U8 converts c to 8-bit components with rounding and clamping.
func (c RGBA) U8() [4]uint8 {
	return [4]uint8{
		clampAndRound(c[0]),
		clampAndRound(c[1]),
		clampAndRound(c[2]),
		clampAndRound(c[3]),
	}
}

// FromU8 converts 8-bit components to RGBA.
func FromU8(r, g, b, a uint8) RGBA {
	return RGBA{
		float32(r) / 255.0,
		float32(g) / 255.0,
		float32(b) / 255.0,
		float32(a) / 255.0,
	}
}

// HSL creates an opaque color from hue in degrees, saturation and
// lightness in [0,1]. Hue wraps, so -30 and 330 are the same color.
func HSL(h, s, l float64) RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 360

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 1.0/6:
		r, g, b = c, x, 0
	case h < 2.0/6:
		r, g, b = x, c, 0
	case h < 3.0/6:
		r, g, b = 0, c, x
	case h < 4.0/6:
		r, g, b = 0, x, c
	case h < 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return RGBA{float32(r + m), float32(g + m), float32(b + m), 1}
}

// clampAndRound clamps a float32 to [0,1] and converts to uint8 with rounding.
func clampAndRound(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}
