package compute

import (
	"math"

	"github.com/gogpu/glyphfield/config"
	"github.com/gogpu/glyphfield/glyph"
	gcolor "github.com/gogpu/glyphfield/internal/color"
	"github.com/gogpu/glyphfield/render"
)

// LogEpsilon replaces non-positive values before taking a logarithm.
const LogEpsilon = 1e-6

// Normalize maps v from [lo, hi] to [0, 1], clamping outside values. A
// degenerate range maps everything to 0.
func Normalize(v, lo, hi float64, interp config.Interpolation) float64 {
	if interp == config.Log {
		v = math.Log(math.Max(v, LogEpsilon))
		lo = math.Log(math.Max(lo, LogEpsilon))
		hi = math.Log(math.Max(hi, LogEpsilon))
	}
	if !(hi > lo) {
		return 0
	}
	t := (v - lo) / (hi - lo)
	return math.Max(0, math.Min(1, t))
}

// RankPosition returns the normalized position of a rank among n slots
// after applying the axis order.
func RankPosition(rank, n uint32, interp config.Interpolation, order config.Order) float64 {
	if n <= 1 {
		return 0
	}
	idx := min(rank, n-1)
	if order == config.Descending {
		idx = n - 1 - idx
	}
	// Slots are counted from 1 so the first one survives a logarithm.
	return Normalize(float64(idx)+1, 1, float64(n), interp)
}

// Place computes the instance of one record.
func Place(r *glyph.Record, in *Input) render.Instance {
	p := &in.Params
	span := max(p.AxisLength-2*p.GlyphOffset, 0)

	tx := RankPosition(r.XRank, in.RankCount[glyph.AxisX], p.Interpolation[glyph.AxisX], p.Order[glyph.AxisX])
	tz := RankPosition(r.ZRank, in.RankCount[glyph.AxisZ], p.Interpolation[glyph.AxisZ], p.Order[glyph.AxisZ])

	ty := Normalize(float64(r.YValue), in.YMin, in.YMax, p.Interpolation[glyph.AxisY])
	if p.Order[glyph.AxisY] == config.Descending {
		ty = 1 - ty
	}

	var flags uint32
	height := float32(ty) * p.AxisLength * p.ZHeightRatio
	if height < p.MinGlyphHeight {
		height = p.MinGlyphHeight
		flags |= render.FlagClamped
	}
	if in.Selected != nil && in.Selected(r.GlyphID) {
		flags |= render.FlagSelected
	}

	tc := float32(ty)
	if p.ColorFlip {
		tc = 1 - tc
	}
	c := gcolor.RGBA(p.MinColor).Lerp(gcolor.RGBA(p.MaxColor), tc)

	return render.Instance{
		Position: [3]float32{
			p.GlyphOffset + float32(tx)*span,
			height,
			p.GlyphOffset + float32(tz)*span,
		},
		Color:   c,
		GlyphID: r.GlyphID,
		Flags:   flags,
	}
}
